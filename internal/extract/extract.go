// Package extract turns raw search records into deduplicated contacts with
// resolved email addresses, using a bounded worker pool.
package extract

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/domaincache"
	"github.com/sells-group/prospect-cli/internal/identity"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/waterfall"
)

// EmailResolver resolves one candidate's address.
type EmailResolver interface {
	Resolve(ctx context.Context, in waterfall.Input) waterfall.Resolution
}

// DomainCache is the subset of domaincache.Service extraction needs.
type DomainCache interface {
	Seed(employer, domain string)
	Prefetch(ctx context.Context, employers []string, workers int) domaincache.PrefetchStats
}

// Config sizes the extraction pools.
type Config struct {
	Workers           int
	DomainWorkers     int
	EarlyStopMultiple int
	ResolveTimeout    time.Duration
}

// DefaultConfig returns the standard pool sizes.
func DefaultConfig() Config {
	return Config{
		Workers:           10,
		DomainWorkers:     5,
		EarlyStopMultiple: 2,
		ResolveTimeout:    30 * time.Second,
	}
}

// Stats counts what happened to each input record.
type Stats struct {
	Records    int                       `json:"records"`
	Invalid    int                       `json:"invalid"`
	Duplicates int                       `json:"duplicates"`
	Dispatched int                       `json:"dispatched"`
	Skipped    int                       `json:"skipped"`
	Resolved   int                       `json:"resolved"`
	Failed     int                       `json:"failed"`
	Prefetch   domaincache.PrefetchStats `json:"prefetch"`
}

// Pipeline extracts contacts from raw records.
type Pipeline struct {
	cfg      Config
	cache    DomainCache
	resolver EmailResolver
}

// New creates a Pipeline. cache may be nil to skip the domain pre-pass.
func New(cfg Config, cache DomainCache, resolver EmailResolver) *Pipeline {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.DomainWorkers <= 0 {
		cfg.DomainWorkers = def.DomainWorkers
	}
	if cfg.EarlyStopMultiple <= 0 {
		cfg.EarlyStopMultiple = def.EarlyStopMultiple
	}
	return &Pipeline{cfg: cfg, cache: cache, resolver: resolver}
}

type item struct {
	key model.IdentityKey
	rec model.RawCandidateRecord
}

// Extract validates and deduplicates records, pre-resolves employer
// domains, then resolves emails concurrently. Once EarlyStopMultiple ×
// desired contacts have an address, no further records are dispatched;
// desired <= 0 disables the early stop. Records whose key seen already
// contains are dropped before any work. When seen is an identity.Claimer,
// each admitted key is claimed up front and released again if its record
// is skipped or fails. Output order is unspecified.
func (p *Pipeline) Extract(ctx context.Context, records []model.RawCandidateRecord, desired int, seen identity.Lookup) ([]model.Contact, Stats) {
	stats := Stats{Records: len(records)}
	items := p.prefilter(records, seen, &stats)
	claimer, _ := seen.(identity.Claimer)
	release := func(key model.IdentityKey) {
		if claimer != nil {
			claimer.Release(key)
		}
	}
	if len(items) == 0 {
		return nil, stats
	}

	if p.cache != nil {
		var employers []string
		for _, it := range items {
			if it.rec.EmployerDomain != "" {
				p.cache.Seed(it.rec.Employer, it.rec.EmployerDomain)
			}
			employers = append(employers, it.rec.Employer)
		}
		stats.Prefetch = p.cache.Prefetch(ctx, employers, p.cfg.DomainWorkers)
	}

	target := int64(desired * p.cfg.EarlyStopMultiple)
	var (
		found      atomic.Int64
		dispatched atomic.Int64
		skipped    atomic.Int64
		failed     atomic.Int64
		mu         sync.Mutex
		contacts   []model.Contact
	)
	reached := func() bool {
		return target > 0 && found.Load() >= target
	}

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)
	for _, it := range items {
		if reached() || ctx.Err() != nil {
			skipped.Add(1)
			release(it.key)
			continue
		}
		g.Go(func() error {
			// Checked again: the flag may have flipped while waiting for a slot.
			if reached() || ctx.Err() != nil {
				skipped.Add(1)
				release(it.key)
				return nil
			}
			dispatched.Add(1)

			c, err := p.extractOne(ctx, it)
			if err != nil {
				failed.Add(1)
				release(it.key)
				zap.L().Warn("extract: record failed",
					zap.String("identity", it.key.String()),
					zap.Error(err),
				)
				return nil
			}
			if c.HasEmail() {
				found.Add(1)
			}

			mu.Lock()
			contacts = append(contacts, c)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	stats.Dispatched = int(dispatched.Load())
	stats.Skipped = int(skipped.Load())
	stats.Failed = int(failed.Load())
	stats.Resolved = int(found.Load())

	zap.L().Debug("extract: batch complete",
		zap.Int("records", stats.Records),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("dispatched", stats.Dispatched),
		zap.Int("skipped", stats.Skipped),
		zap.Int("resolved", stats.Resolved),
	)
	return contacts, stats
}

// prefilter drops invalid records and duplicates (within the batch and
// against seen). Only map lookups happen here.
func (p *Pipeline) prefilter(records []model.RawCandidateRecord, seen identity.Lookup, stats *Stats) []item {
	admit := func(key model.IdentityKey) bool { return seen == nil || !seen.Contains(key) }
	if c, ok := seen.(identity.Claimer); ok {
		admit = c.Claim
	}

	batch := make(model.KeySet, len(records))
	items := make([]item, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			stats.Invalid++
			zap.L().Debug("extract: dropping invalid record", zap.Error(err))
			continue
		}
		key := identity.KeyOf(rec)
		if identity.IsDuplicate(key, batch) || !admit(key) {
			stats.Duplicates++
			continue
		}
		batch.Add(key)
		items = append(items, item{key: key, rec: rec})
	}
	return items
}

func (p *Pipeline) extractOne(ctx context.Context, it item) (c model.Contact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("extract: panic resolving %s: %v", it.key, r)
		}
	}()

	if p.cfg.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ResolveTimeout)
		defer cancel()
	}

	first, last := it.rec.Names()
	c = model.Contact{
		Key:       it.key,
		FirstName: first,
		LastName:  last,
		Employer:  strings.TrimSpace(it.rec.Employer),
		Title:     strings.TrimSpace(it.rec.Title),
		Location:  strings.TrimSpace(it.rec.Location),
	}
	if p.resolver == nil {
		return c, nil
	}

	res := p.resolver.Resolve(ctx, waterfall.Input{
		CandidateEmail: it.rec.PreferredEmail(),
		FirstName:      first,
		LastName:       last,
		Employer:       c.Employer,
	})
	return c.WithEmail(res.Email), nil
}
