// Package search runs concurrent people-search strategies and merges their
// extracted contacts into one deduplicated result.
package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/identity"
	"github.com/sells-group/prospect-cli/internal/model"
)

// recordsPerContact oversamples provider results to leave room for
// duplicates, exclusions, and unresolved emails.
const recordsPerContact = 3

// Extractor turns raw records into contacts.
type Extractor interface {
	Extract(ctx context.Context, records []model.RawCandidateRecord, desired int, seen identity.Lookup) ([]model.Contact, extract.Stats)
}

// Config tunes the orchestrator.
type Config struct {
	Workers         int
	StrategyTimeout time.Duration
	MaxRecords      int  // cap on records requested per strategy
	MaxContacts     int  // ceiling on SearchQuery.MaxContacts; 0 disables
	RequireEmail    bool // drop contacts the waterfall could not resolve
}

// Result is the outcome of one Search.
type Result struct {
	Contacts   []model.Contact      `json:"contacts"`
	Strategies []model.StrategyStat `json:"strategies"`
	Fallback   bool                 `json:"fallback"`
	Duration   time.Duration        `json:"duration"`
}

// Orchestrator runs search strategies for a query.
type Orchestrator struct {
	provider  Provider
	extractor Extractor
	cfg       Config
}

// New creates an Orchestrator.
func New(provider Provider, extractor Extractor, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.StrategyTimeout <= 0 {
		cfg.StrategyTimeout = 45 * time.Second
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = 100
	}
	return &Orchestrator{provider: provider, extractor: extractor, cfg: cfg}
}

// Search returns at most q.MaxContacts contacts with distinct identity keys,
// none of which are in q.ExcludeKeys. Initial strategies run concurrently;
// if they come up short a fallback strategy runs afterwards. Strategy
// failures are logged and yield zero contacts. Only an invalid query is
// returned as an error.
func (o *Orchestrator) Search(ctx context.Context, q model.SearchQuery) (*Result, error) {
	if err := q.Validate(o.cfg.MaxContacts); err != nil {
		return nil, err
	}

	start := time.Now()
	acc := newAccumulator(q, o.cfg.RequireEmail)
	strategies := Plan(q.Location)
	stats := make([]model.StrategyStat, len(strategies))
	var failures atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Workers)
	for i, s := range strategies {
		g.Go(func() error {
			st, err := o.run(ctx, s, q, acc)
			stats[i] = st
			if err != nil {
				failures.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	total := len(strategies)

	res := &Result{Strategies: stats}
	if !acc.full() && ctx.Err() == nil {
		res.Fallback = true
		total++
		st, err := o.run(ctx, Fallback, q, acc)
		res.Strategies = append(res.Strategies, st)
		if err != nil {
			failures.Add(1)
		}
	}

	if int(failures.Load()) == total {
		zap.L().Warn("search: all strategies failed",
			zap.String("title", q.PrimaryTitle),
			zap.Int("strategies", total),
		)
	}

	res.Contacts = acc.result()
	res.Duration = time.Since(start)
	zap.L().Info("search: complete",
		zap.String("title", q.PrimaryTitle),
		zap.String("location_mode", string(q.Location.Mode)),
		zap.Int("contacts", len(res.Contacts)),
		zap.Int("max_contacts", q.MaxContacts),
		zap.Bool("fallback", res.Fallback),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// run executes one strategy and merges its contacts. The returned error is
// the provider failure, already logged.
func (o *Orchestrator) run(ctx context.Context, s Strategy, q model.SearchQuery, acc *accumulator) (model.StrategyStat, error) {
	start := time.Now()
	st := model.StrategyStat{Name: s.Name}

	limit := q.MaxContacts * recordsPerContact
	if limit > o.cfg.MaxRecords {
		limit = o.cfg.MaxRecords
	}

	sctx, cancel := context.WithTimeout(ctx, o.cfg.StrategyTimeout)
	records, err := o.provider.Search(sctx, s.Build(q, limit))
	cancel()
	if err != nil {
		zap.L().Warn("search: strategy failed",
			zap.String("strategy", s.Name),
			zap.Error(err),
		)
		st.Error = err.Error()
		st.DurationMs = time.Since(start).Milliseconds()
		return st, err
	}
	st.Records = len(records)

	if acc.full() {
		zap.L().Debug("search: accumulator full, discarding strategy output", zap.String("strategy", s.Name))
		st.DurationMs = time.Since(start).Milliseconds()
		return st, nil
	}

	contacts, xs := o.extractor.Extract(ctx, records, q.MaxContacts, acc)
	extract.Rank(contacts)
	st.Extracted = len(contacts)
	st.Skipped = xs.Skipped
	st.Merged = acc.merge(contacts)
	st.DurationMs = time.Since(start).Milliseconds()

	zap.L().Debug("search: strategy merged",
		zap.String("strategy", s.Name),
		zap.Int("records", st.Records),
		zap.Int("extracted", st.Extracted),
		zap.Int("merged", st.Merged),
	)
	return st, nil
}

// accumulator collects merged contacts under a mutex. It doubles as the
// identity.Claimer handed to extraction: a key is claimed when a strategy
// admits it, so concurrent strategies never resolve the same person twice.
// Claims stay held after resolution unless the contact is merged into the
// index, which also keeps unresolved people from being retried.
type accumulator struct {
	mu           sync.Mutex
	index        *identity.Index
	claimed      model.KeySet
	contacts     []model.Contact
	max          int
	requireEmail bool
}

func newAccumulator(q model.SearchQuery, requireEmail bool) *accumulator {
	return &accumulator{
		index:        identity.NewIndex(q.ExcludeKeys),
		claimed:      make(model.KeySet),
		max:          q.MaxContacts,
		requireEmail: requireEmail,
	}
}

// Contains implements identity.Lookup.
func (a *accumulator) Contains(key model.IdentityKey) bool {
	if a.index.Contains(key) {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.claimed.Has(key)
}

// Claim implements identity.Claimer.
func (a *accumulator) Claim(key model.IdentityKey) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.claimed.Has(key) || a.index.Contains(key) {
		return false
	}
	a.claimed.Add(key)
	return true
}

// Release implements identity.Claimer.
func (a *accumulator) Release(key model.IdentityKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.claimed, key)
}

func (a *accumulator) full() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.contacts) >= a.max
}

// merge appends contacts whose keys are new, stopping at max. Returns the
// number merged.
func (a *accumulator) merge(contacts []model.Contact) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	merged := 0
	for _, c := range contacts {
		if len(a.contacts) >= a.max {
			break
		}
		if a.requireEmail && !c.HasEmail() {
			a.claimed.Add(c.Key)
			continue
		}
		if !a.index.Add(c.Key) {
			continue
		}
		delete(a.claimed, c.Key)
		a.contacts = append(a.contacts, c)
		merged++
	}
	return merged
}

func (a *accumulator) result() []model.Contact {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Contact, len(a.contacts))
	copy(out, a.contacts)
	return out
}
