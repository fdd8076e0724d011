// Package waterfall resolves a contact's email address through an ordered
// sequence of tiers, stopping at the first tier that accepts an address.
package waterfall

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/domaincache"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Resolver runs the email waterfall. Collaborators may be nil; a nil
// Finder skips the finder tier, and a nil Verifier means every address is
// treated as unverified.
type Resolver struct {
	cfg      atomic.Pointer[Config]
	domains  DomainLookup
	verifier Verifier
	finder   Finder
	patterns PatternSource
}

// NewResolver creates a Resolver. cfg may be nil for defaults.
func NewResolver(cfg *Config, domains DomainLookup, verifier Verifier, finder Finder, patterns PatternSource) *Resolver {
	r := &Resolver{
		domains:  domains,
		verifier: verifier,
		finder:   finder,
		patterns: patterns,
	}
	r.SetConfig(cfg)
	return r
}

// SetConfig swaps the active configuration. Safe to call while Resolve
// runs; in-flight resolutions keep the config they started with.
func (r *Resolver) SetConfig(cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r.cfg.Store(cfg)
}

// Config returns the active configuration.
func (r *Resolver) Config() *Config {
	return r.cfg.Load()
}

// resolution accumulates attempts for one Resolve call.
type resolution struct {
	Resolution
	log *zap.Logger
}

func (res *resolution) record(a Attempt) {
	res.Attempts = append(res.Attempts, a)
	if a.Outcome == OutcomeFailed {
		res.log.Debug("waterfall: tier failed",
			zap.Stringer("tier", a.Tier),
			zap.String("reason", a.Reason),
		)
	}
}

func (res *resolution) accept(tier Tier, email *model.ResolvedEmail) Resolution {
	res.Tier = tier
	res.Email = email
	res.Attempts = append(res.Attempts, Attempt{
		Tier:    tier,
		Outcome: OutcomeAccepted,
		Address: email.Address,
		Score:   email.Score,
	})
	return res.Resolution
}

// Resolve runs the tiers in order:
//
//  1. domain match: candidate on the employer's domain, verified against T1
//  2. finder: name + domain lookup
//  3. pattern: address synthesized from a naming template, verified against T2
//  4. personal fallback: only when the employer domain is unknown
//
// Tier errors fall through to the next tier. A nil Email is returned when
// nothing was accepted.
func (r *Resolver) Resolve(ctx context.Context, in Input) Resolution {
	cfg := r.Config()
	res := &resolution{log: zap.L().With(
		zap.String("employer", in.Employer),
		zap.String("first_name", in.FirstName),
		zap.String("last_name", in.LastName),
	)}

	candidate := strings.ToLower(strings.TrimSpace(in.CandidateEmail))
	if !strings.Contains(candidate, "@") {
		candidate = ""
	}
	candDomain := domaincache.EmailDomain(candidate)

	domain := r.employerDomain(ctx, in.Employer, res)
	res.Domain = domain

	if domain != "" {
		if email := r.domainMatchTier(ctx, cfg, candidate, candDomain, domain, res); email != nil {
			return res.accept(TierDomainMatch, email)
		}
		if email := r.finderTier(ctx, in, domain, res); email != nil {
			return res.accept(TierFinder, email)
		}
		if email := r.patternTier(ctx, cfg, in, domain, res); email != nil {
			return res.accept(TierPattern, email)
		}
		res.Tier = TierNone
		return res.Resolution
	}

	if email := r.personalTier(ctx, cfg, candidate, candDomain, res); email != nil {
		return res.accept(TierPersonal, email)
	}
	res.Tier = TierNone
	return res.Resolution
}

func (r *Resolver) employerDomain(ctx context.Context, employer string, res *resolution) string {
	if r.domains == nil || strings.TrimSpace(employer) == "" {
		return ""
	}
	domain, err := r.domains.Lookup(ctx, employer)
	if err != nil {
		res.log.Debug("waterfall: employer domain lookup failed", zap.Error(err))
		return ""
	}
	return domaincache.NormalizeDomain(domain)
}

func (r *Resolver) verify(ctx context.Context, addr string) (*Verification, error) {
	if r.verifier == nil {
		return nil, nil
	}
	return r.verifier.Verify(ctx, addr)
}

func (r *Resolver) domainMatchTier(ctx context.Context, cfg *Config, candidate, candDomain, domain string, res *resolution) *model.ResolvedEmail {
	if candidate == "" {
		res.record(Attempt{Tier: TierDomainMatch, Outcome: OutcomeSkipped, Reason: "no candidate email"})
		return nil
	}
	if !domaincache.Related(candDomain, domain) {
		res.record(Attempt{Tier: TierDomainMatch, Outcome: OutcomeSkipped, Address: candidate, Reason: "candidate domain does not match " + domain})
		return nil
	}

	v, err := r.verify(ctx, candidate)
	if err != nil {
		res.record(Attempt{Tier: TierDomainMatch, Outcome: OutcomeFailed, Address: candidate, Reason: err.Error()})
		return nil
	}
	if v == nil {
		return &model.ResolvedEmail{Address: candidate, Source: model.SourceOriginal}
	}
	score := v.Score
	return &model.ResolvedEmail{
		Address:  candidate,
		Verified: v.Score >= cfg.Thresholds.DomainMatch,
		Source:   model.SourceOriginal,
		Score:    &score,
	}
}

func (r *Resolver) finderTier(ctx context.Context, in Input, domain string, res *resolution) *model.ResolvedEmail {
	if r.finder == nil {
		res.record(Attempt{Tier: TierFinder, Outcome: OutcomeSkipped, Reason: "no finder configured"})
		return nil
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		res.record(Attempt{Tier: TierFinder, Outcome: OutcomeSkipped, Reason: "name incomplete"})
		return nil
	}
	addr, err := r.finder.Find(ctx, in.FirstName, in.LastName, domain)
	if err != nil {
		res.record(Attempt{Tier: TierFinder, Outcome: OutcomeFailed, Reason: err.Error()})
		return nil
	}
	addr = strings.ToLower(strings.TrimSpace(addr))
	if !strings.Contains(addr, "@") {
		res.record(Attempt{Tier: TierFinder, Outcome: OutcomeRejected, Reason: "no address found"})
		return nil
	}
	return &model.ResolvedEmail{Address: addr, Verified: true, Source: model.SourceFinder}
}

// template picks the naming convention for domain: configured table first,
// then the pattern service, then the default template.
func (r *Resolver) template(ctx context.Context, cfg *Config, domain string, res *resolution) string {
	if t := cfg.PatternFor(domain); t != "" {
		return t
	}
	if r.patterns != nil {
		t, err := r.patterns.PatternFor(ctx, domain)
		if err != nil {
			res.log.Debug("waterfall: pattern lookup failed", zap.String("domain", domain), zap.Error(err))
		} else if t != "" && checkTemplate(t) == nil {
			return t
		}
	}
	return cfg.DefaultPattern
}

func (r *Resolver) patternTier(ctx context.Context, cfg *Config, in Input, domain string, res *resolution) *model.ResolvedEmail {
	addr, err := Render(r.template(ctx, cfg, domain, res), in.FirstName, in.LastName, domain)
	if err != nil {
		res.record(Attempt{Tier: TierPattern, Outcome: OutcomeSkipped, Reason: err.Error()})
		return nil
	}

	email := &model.ResolvedEmail{Address: addr, Source: model.SourcePattern}
	v, err := r.verify(ctx, addr)
	if err != nil {
		res.log.Debug("waterfall: pattern verification failed", zap.String("address", addr), zap.Error(err))
		return email
	}
	if v != nil {
		score := v.Score
		email.Score = &score
		email.Verified = v.Status == StatusValid && v.Score >= cfg.Thresholds.Pattern
	}
	return email
}

func (r *Resolver) personalTier(ctx context.Context, cfg *Config, candidate, candDomain string, res *resolution) *model.ResolvedEmail {
	if candidate == "" {
		res.record(Attempt{Tier: TierPersonal, Outcome: OutcomeSkipped, Reason: "no candidate email"})
		return nil
	}
	if !cfg.IsPersonal(candDomain) {
		return &model.ResolvedEmail{Address: candidate, Source: model.SourceOriginal}
	}

	v, err := r.verify(ctx, candidate)
	if err != nil {
		res.record(Attempt{Tier: TierPersonal, Outcome: OutcomeFailed, Address: candidate, Reason: err.Error()})
		return nil
	}
	if v == nil || v.Score < cfg.Thresholds.Personal {
		a := Attempt{Tier: TierPersonal, Outcome: OutcomeRejected, Address: candidate, Reason: "personal address below threshold"}
		if v != nil {
			score := v.Score
			a.Score = &score
		}
		res.record(a)
		return nil
	}
	score := v.Score
	return &model.ResolvedEmail{Address: candidate, Verified: true, Source: model.SourceOriginal, Score: &score}
}
