package resilience

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/pkg/apierr"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 20 * time.Millisecond, Multiplier: 2}
}

func unavailable() error {
	return &apierr.StatusError{Service: "hunter", StatusCode: http.StatusServiceUnavailable}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"503", unavailable(), true},
		{"429 wrapped", eris.Wrap(&apierr.StatusError{StatusCode: 429}, "pdl: search"), true},
		{"404", &apierr.StatusError{StatusCode: 404}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"reset", eris.New("read tcp: connection reset by peer"), true},
		{"plain", eris.New("bad input"), false},
		{"circuit open", ErrCircuitOpen, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetry_SucceedsAfterTransient(t *testing.T) {
	var calls int
	got, err := Retry(context.Background(), fastRetry(), func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", unavailable()
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanent(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastRetry(), func(_ context.Context) (int, error) {
		calls++
		return 0, &apierr.StatusError{StatusCode: 400}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_Exhausts(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastRetry(), func(_ context.Context) (int, error) {
		calls++
		return 0, unavailable()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxBackoff = time.Second
	var delays []time.Duration
	cfg.OnRetry = func(_ int, d time.Duration, _ error) { delays = append(delays, d) }

	var calls int
	_, err := Retry(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, &apierr.StatusError{StatusCode: 429, RetryAfter: 30 * time.Millisecond}
		}
		return 1, nil
	})
	require.NoError(t, err)
	require.Len(t, delays, 1)
	assert.Equal(t, 30*time.Millisecond, delays[0])
}

func TestRetry_RetryAfterBeyondBudget(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastRetry(), func(_ context.Context) (int, error) {
		calls++
		return 0, &apierr.StatusError{StatusCode: 429, RetryAfter: time.Hour}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, apierr.IsRateLimited(err))
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Retry(ctx, fastRetry(), func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, unavailable()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGuard_OpensAndRecovers(t *testing.T) {
	g := NewGuard(RetryConfig{MaxAttempts: 1}, BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	fail := func(_ context.Context) (int, error) { return 0, unavailable() }
	for i := 0; i < 2; i++ {
		_, err := Call(context.Background(), g, "hunter", "find", fail)
		require.Error(t, err)
	}
	assert.Equal(t, Open, g.Breaker("hunter").State())

	var called atomic.Bool
	_, err := Call(context.Background(), g, "hunter", "find", func(_ context.Context) (int, error) {
		called.Store(true)
		return 1, nil
	})
	assert.True(t, eris.Is(err, ErrCircuitOpen))
	assert.False(t, called.Load())

	// Other services are unaffected.
	v, err := Call(context.Background(), g, "pdl", "search", func(_ context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, HalfOpen, g.Breaker("hunter").State())
	v, err = Call(context.Background(), g, "hunter", "find", func(_ context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, Closed, g.Breaker("hunter").State())
}

func TestGuard_PermanentErrorsDoNotTrip(t *testing.T) {
	g := NewGuard(RetryConfig{MaxAttempts: 1}, BreakerConfig{FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		_, _ = Call(context.Background(), g, "hunter", "verify", func(_ context.Context) (int, error) {
			return 0, &apierr.StatusError{StatusCode: 404}
		})
	}
	assert.Equal(t, Closed, g.Breaker("hunter").State())
	assert.Equal(t, map[string]State{"hunter": Closed}, g.States())
}

func TestGuard_HalfOpenFailureReopens(t *testing.T) {
	g := NewGuard(RetryConfig{MaxAttempts: 1}, BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	now := time.Unix(0, 0)
	g.now = func() time.Time { return now }

	_, _ = Call(context.Background(), g, "gmail", "draft", func(_ context.Context) (int, error) { return 0, unavailable() })
	now = now.Add(2 * time.Second)
	_, _ = Call(context.Background(), g, "gmail", "draft", func(_ context.Context) (int, error) { return 0, unavailable() })

	assert.Equal(t, Open, g.Breaker("gmail").State())
}

func TestCall_NilGuard(t *testing.T) {
	v, err := Call(context.Background(), nil, "x", "y", func(_ context.Context) (string, error) { return "direct", nil })
	require.NoError(t, err)
	assert.Equal(t, "direct", v)
}

func TestFromConfig(t *testing.T) {
	g := FromConfig(config.ResilienceConfig{
		MaxAttempts:      4,
		InitialBackoffMs: 100,
		MaxBackoffMs:     2000,
		Multiplier:       3,
		FailureThreshold: 7,
		ResetTimeoutSecs: 10,
	})
	assert.Equal(t, 4, g.retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, g.retry.InitialBackoff)
	assert.Equal(t, 2*time.Second, g.retry.MaxBackoff)
	assert.InDelta(t, 3.0, g.retry.Multiplier, 0.001)
	assert.Equal(t, 7, g.breaker.FailureThreshold)
	assert.Equal(t, 10*time.Second, g.breaker.ResetTimeout)
}
