package waterfall

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Tier identifies a step of the email waterfall.
type Tier int

const (
	TierDomainMatch Tier = iota + 1
	TierFinder
	TierPattern
	TierPersonal
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierDomainMatch:
		return "domain_match"
	case TierFinder:
		return "finder"
	case TierPattern:
		return "pattern"
	case TierPersonal:
		return "personal_fallback"
	case TierNone:
		return "none"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single tier attempt.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

// Attempt records what one tier did.
type Attempt struct {
	Tier    Tier    `json:"tier"`
	Outcome Outcome `json:"outcome"`
	Address string  `json:"address,omitempty"`
	Score   *int    `json:"score,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// Input is one candidate to resolve.
type Input struct {
	CandidateEmail string
	FirstName      string
	LastName       string
	Employer       string
}

// Resolution is the waterfall's result. Email is nil when no tier produced
// an address, which is an expected outcome.
type Resolution struct {
	Email    *model.ResolvedEmail `json:"email,omitempty"`
	Tier     Tier                 `json:"tier"`
	Domain   string               `json:"domain,omitempty"`
	Attempts []Attempt            `json:"attempts"`
}

// VerifyStatus is the deliverability verdict of a verification call.
type VerifyStatus string

const (
	StatusValid      VerifyStatus = "valid"
	StatusInvalid    VerifyStatus = "invalid"
	StatusAcceptAll  VerifyStatus = "accept_all"
	StatusWebmail    VerifyStatus = "webmail"
	StatusDisposable VerifyStatus = "disposable"
	StatusUnknown    VerifyStatus = "unknown"
)

// Verification is a scored deliverability check. Score is 0–100.
type Verification struct {
	Score  int
	Status VerifyStatus
}

// DomainLookup resolves an employer to its email domain. An empty domain
// with a nil error means the employer has no known domain.
type DomainLookup interface {
	Lookup(ctx context.Context, employer string) (string, error)
}

// Verifier scores an address.
type Verifier interface {
	Verify(ctx context.Context, address string) (*Verification, error)
}

// Finder looks an address up by name and domain. Returns "" when nothing
// was found.
type Finder interface {
	Find(ctx context.Context, first, last, domain string) (string, error)
}

// PatternSource returns the naming template a domain uses, or "".
type PatternSource interface {
	PatternFor(ctx context.Context, domain string) (string, error)
}
