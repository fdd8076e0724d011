package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/waterfall"
	"github.com/sells-group/prospect-cli/pkg/hunter"
)

// HunterEmail serves the waterfall's verifier, finder, and pattern source.
// Patterns are memoized per domain for the life of the value.
type HunterEmail struct {
	client hunter.Client
	guard  *resilience.Guard

	mu       sync.Mutex
	patterns map[string]string
}

// NewHunterEmail creates a HunterEmail.
func NewHunterEmail(client hunter.Client, guard *resilience.Guard) *HunterEmail {
	return &HunterEmail{client: client, guard: guard, patterns: make(map[string]string)}
}

// Verify implements waterfall.Verifier.
func (h *HunterEmail) Verify(ctx context.Context, address string) (*waterfall.Verification, error) {
	res, err := resilience.Call(ctx, h.guard, ServiceHunter, "email_verifier", func(ctx context.Context) (*hunter.VerifyResult, error) {
		return h.client.VerifyEmail(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return &waterfall.Verification{Score: clampScore(res.Score), Status: verifyStatus(res.Status)}, nil
}

// Find implements waterfall.Finder.
func (h *HunterEmail) Find(ctx context.Context, first, last, domain string) (string, error) {
	res, err := resilience.Call(ctx, h.guard, ServiceHunter, "email_finder", func(ctx context.Context) (*hunter.EmailFinderResult, error) {
		return h.client.EmailFinder(ctx, domain, first, last)
	})
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(res.Email)), nil
}

// PatternFor implements waterfall.PatternSource.
func (h *HunterEmail) PatternFor(ctx context.Context, domain string) (string, error) {
	h.mu.Lock()
	p, ok := h.patterns[domain]
	h.mu.Unlock()
	if ok {
		return p, nil
	}

	res, err := resilience.Call(ctx, h.guard, ServiceHunter, "domain_search", func(ctx context.Context) (*hunter.DomainSearchResult, error) {
		return h.client.DomainSearch(ctx, domain, "")
	})
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.patterns[domain] = res.Pattern
	h.mu.Unlock()
	return res.Pattern, nil
}

func verifyStatus(s string) waterfall.VerifyStatus {
	switch waterfall.VerifyStatus(s) {
	case waterfall.StatusValid, waterfall.StatusInvalid, waterfall.StatusAcceptAll,
		waterfall.StatusWebmail, waterfall.StatusDisposable:
		return waterfall.VerifyStatus(s)
	default:
		return waterfall.StatusUnknown
	}
}

func clampScore(n int) int {
	return min(max(n, 0), 100)
}
