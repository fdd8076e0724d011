package domaincache

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Resolver maps an employer name to the domain its employees use for email.
// An empty domain with a nil error means the resolver found nothing.
type Resolver interface {
	Name() string
	ResolveDomain(ctx context.Context, employer string) (string, error)
}

// Chain tries resolvers in priority order and returns the first domain found.
type Chain struct {
	resolvers []Resolver
}

// NewChain creates a Chain. Resolvers are tried in the order given.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Name implements Resolver.
func (c *Chain) Name() string { return "chain" }

// ResolveDomain tries each resolver in order. A failing resolver is logged
// and skipped. The last error is returned only if every resolver failed.
func (c *Chain) ResolveDomain(ctx context.Context, employer string) (string, error) {
	var (
		lastErr error
		failed  int
	)
	for _, r := range c.resolvers {
		domain, err := r.ResolveDomain(ctx, employer)
		if err != nil {
			zap.L().Debug("domaincache: resolver failed, trying next",
				zap.String("resolver", r.Name()),
				zap.String("employer", employer),
				zap.Error(err),
			)
			lastErr = err
			failed++
			continue
		}
		if d := NormalizeDomain(domain); d != "" {
			return d, nil
		}
	}
	if failed > 0 && failed == len(c.resolvers) {
		return "", eris.Wrap(lastErr, "domaincache: all resolvers failed")
	}
	return "", nil
}
