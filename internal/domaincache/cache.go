// Package domaincache provides the shared employer → email domain cache used
// by extraction workers.
package domaincache

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/prospect-cli/internal/identity"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Default entry lifetimes.
const (
	DefaultTTL         = 7 * 24 * time.Hour
	DefaultNegativeTTL = 6 * time.Hour

	// DefaultLookupTimeout bounds one shared resolution.
	DefaultLookupTimeout = 30 * time.Second
)

// Backing persists entries beyond the process lifetime. Implemented by the
// store package.
type Backing interface {
	GetCachedDomain(ctx context.Context, employer string) (*model.DomainCacheEntry, error)
	SetCachedDomain(ctx context.Context, entry model.DomainCacheEntry) error
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets how long resolved domains stay fresh.
func WithTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

// WithNegativeTTL sets how long "no domain" results stay fresh.
func WithNegativeTTL(d time.Duration) Option {
	return func(s *Service) { s.negativeTTL = d }
}

// WithLookupTimeout bounds a shared resolution independently of any
// single caller's deadline.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// WithBacking enables write-through persistence.
func WithBacking(b Backing) Option {
	return func(s *Service) { s.backing = b }
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is a mutex-guarded cache in front of a Resolver. Concurrent
// misses on the same employer share one resolution.
type Service struct {
	resolver    Resolver
	backing     Backing
	ttl         time.Duration
	negativeTTL time.Duration
	now         func() time.Time

	lookupTimeout time.Duration

	mu      sync.RWMutex
	entries map[string]model.DomainCacheEntry
	group   singleflight.Group
}

// New creates a Service. resolver may be nil, in which case only seeded
// or persisted entries are ever returned.
func New(resolver Resolver, opts ...Option) *Service {
	s := &Service{
		resolver:    resolver,
		ttl:         DefaultTTL,
		negativeTTL: DefaultNegativeTTL,
		now:         time.Now,
		entries:     make(map[string]model.DomainCacheEntry),

		lookupTimeout: DefaultLookupTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// cacheKey normalizes an employer so "Acme, Inc." and "ACME" share an entry.
func cacheKey(employer string) string {
	return identity.NormalizeEmployer(employer)
}

// Get returns the fresh in-memory entry for employer without resolving.
func (s *Service) Get(employer string) (model.DomainCacheEntry, bool) {
	key := cacheKey(employer)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || e.Expired(s.now()) {
		return model.DomainCacheEntry{}, false
	}
	return e, true
}

// Seed records a domain learned elsewhere (a provider hint). Existing fresh
// positive entries are kept.
func (s *Service) Seed(employer, domain string) {
	domain = NormalizeDomain(domain)
	key := cacheKey(employer)
	if key == "" || domain == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.Domain != "" && !e.Expired(s.now()) {
		return
	}
	s.entries[key] = s.entry(key, domain)
}

// Lookup returns the domain for employer, resolving and caching on a miss.
// An unresolvable employer yields "" and a nil error; the negative result is
// cached too. Resolver errors are returned and not cached.
func (s *Service) Lookup(ctx context.Context, employer string) (string, error) {
	if e, ok := s.Get(employer); ok {
		zap.L().Debug("domaincache: hit", zap.String("employer", employer), zap.String("domain", e.Domain))
		return e.Domain, nil
	}
	key := cacheKey(employer)
	if key == "" {
		return "", nil
	}

	// The flight outlives any one caller: it keeps the first caller's values
	// but not its deadline, so coalesced waiters are not cut short by it.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lookupTimeout)
		defer cancel()
		return s.resolve(fctx, key, employer)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	case <-ctx.Done():
		return "", eris.Wrapf(ctx.Err(), "domaincache: lookup %s", employer)
	}
}

func (s *Service) resolve(ctx context.Context, key, employer string) (string, error) {
	// Another caller may have filled the entry while we waited.
	if e, ok := s.Get(employer); ok {
		return e.Domain, nil
	}
	if e := s.loadBacking(ctx, key); e != nil {
		s.put(*e)
		return e.Domain, nil
	}
	if s.resolver == nil {
		return "", nil
	}
	domain, err := s.resolver.ResolveDomain(ctx, employer)
	if err != nil {
		return "", err
	}
	e := s.entry(key, NormalizeDomain(domain))
	s.put(e)
	s.storeBacking(ctx, e)
	return e.Domain, nil
}

// Len returns the number of in-memory entries, fresh or not.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Evict drops expired in-memory entries and returns how many were removed.
func (s *Service) Evict() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

func (s *Service) entry(key, domain string) model.DomainCacheEntry {
	now := s.now()
	ttl := s.ttl
	if domain == "" {
		ttl = s.negativeTTL
	}
	return model.DomainCacheEntry{
		Employer:   key,
		Domain:     domain,
		ResolvedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}

func (s *Service) put(e model.DomainCacheEntry) {
	s.mu.Lock()
	s.entries[e.Employer] = e
	s.mu.Unlock()
}

func (s *Service) loadBacking(ctx context.Context, key string) *model.DomainCacheEntry {
	if s.backing == nil {
		return nil
	}
	e, err := s.backing.GetCachedDomain(ctx, key)
	if err != nil {
		zap.L().Debug("domaincache: backing lookup failed", zap.String("employer", key), zap.Error(err))
		return nil
	}
	if e == nil || e.Expired(s.now()) {
		return nil
	}
	return e
}

func (s *Service) storeBacking(ctx context.Context, e model.DomainCacheEntry) {
	if s.backing == nil {
		return
	}
	if err := s.backing.SetCachedDomain(ctx, e); err != nil {
		zap.L().Debug("domaincache: failed to persist entry", zap.String("employer", e.Employer), zap.Error(err))
	}
}
