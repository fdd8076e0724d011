package domaincache

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPrefetchWorkers bounds concurrent resolutions during Prefetch.
const DefaultPrefetchWorkers = 5

// PrefetchStats summarizes one Prefetch pass.
type PrefetchStats struct {
	Employers  int
	Hits       int
	Resolved   int
	Unresolved int
	Failed     int
}

// Prefetch resolves every distinct employer in one bounded pass so later
// per-record lookups hit memory. Failures are logged and counted, never
// returned.
func (s *Service) Prefetch(ctx context.Context, employers []string, workers int) PrefetchStats {
	if workers <= 0 {
		workers = DefaultPrefetchWorkers
	}

	seen := make(map[string]bool, len(employers))
	var pending []string
	stats := PrefetchStats{}
	for _, emp := range employers {
		key := cacheKey(emp)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		stats.Employers++
		if _, ok := s.Get(emp); ok {
			stats.Hits++
			continue
		}
		pending = append(pending, emp)
	}

	var resolved, unresolved, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, emp := range pending {
		g.Go(func() error {
			domain, err := s.Lookup(gctx, emp)
			switch {
			case err != nil:
				failed.Add(1)
				zap.L().Warn("domaincache: prefetch failed",
					zap.String("employer", emp),
					zap.Error(err),
				)
			case domain == "":
				unresolved.Add(1)
			default:
				resolved.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Resolved = int(resolved.Load())
	stats.Unresolved = int(unresolved.Load())
	stats.Failed = int(failed.Load())

	zap.L().Debug("domaincache: prefetch complete",
		zap.Int("employers", stats.Employers),
		zap.Int("hits", stats.Hits),
		zap.Int("resolved", stats.Resolved),
		zap.Int("unresolved", stats.Unresolved),
		zap.Int("failed", stats.Failed),
	)
	return stats
}
