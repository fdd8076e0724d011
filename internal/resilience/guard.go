package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/prospect-cli/internal/config"
)

// Guard owns one breaker per named service and a shared retry policy.
type Guard struct {
	retry   RetryConfig
	breaker BreakerConfig
	now     func() time.Time

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGuard creates a Guard.
func NewGuard(retry RetryConfig, breaker BreakerConfig) *Guard {
	return &Guard{
		retry:    retry,
		breaker:  breaker,
		now:      time.Now,
		breakers: make(map[string]*Breaker),
	}
}

// FromConfig builds a Guard from the resilience config section.
func FromConfig(cfg config.ResilienceConfig) *Guard {
	retry := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMs > 0 {
		retry.InitialBackoff = time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		retry.MaxBackoff = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	if cfg.Multiplier > 0 {
		retry.Multiplier = cfg.Multiplier
	}
	return NewGuard(retry, BreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		ResetTimeout:     time.Duration(cfg.ResetTimeoutSecs) * time.Second,
	})
}

// Breaker returns the breaker for service, creating it on first use.
func (g *Guard) Breaker(service string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.breakers[service]
	if !ok {
		b = newBreaker(service, g.breaker, g.now)
		g.breakers[service] = b
	}
	return b
}

// States snapshots every breaker's state.
func (g *Guard) States() map[string]State {
	g.mu.Lock()
	breakers := make(map[string]*Breaker, len(g.breakers))
	for k, v := range g.breakers {
		breakers[k] = v
	}
	g.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for k, b := range breakers {
		out[k] = b.State()
	}
	return out
}

// Call runs fn under service's breaker with retries. A nil Guard calls
// fn once.
func Call[T any](ctx context.Context, g *Guard, service, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}
	b := g.Breaker(service)

	cfg := g.retry
	cfg.OnRetry = LogRetry(service, operation)
	cfg.ShouldRetry = func(err error) bool {
		return IsTransient(err) && b.State() != Open
	}

	return Retry(ctx, cfg, func(ctx context.Context) (T, error) {
		var zero T
		if err := b.allow(); err != nil {
			return zero, err
		}
		val, err := fn(ctx)
		b.record(err)
		return val, err
	})
}
