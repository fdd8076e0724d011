package waterfall

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watch reloads the config at path into r whenever the file changes, until
// ctx is done. The parent directory is watched so editors that replace the
// file atomically are picked up. A config that fails to parse is logged and
// the previous config stays active.
func Watch(ctx context.Context, path string, r *Resolver) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "waterfall: create watcher")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return eris.Wrapf(err, "waterfall: resolve path %s", path)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return eris.Wrapf(err, "waterfall: watch %s", filepath.Dir(abs))
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				cfg, err := LoadConfig(abs)
				if err != nil {
					zap.L().Warn("waterfall: reload failed, keeping previous config",
						zap.String("path", abs),
						zap.Error(err),
					)
					continue
				}
				r.SetConfig(cfg)
				zap.L().Info("waterfall: config reloaded",
					zap.String("path", abs),
					zap.Int("t1", cfg.Thresholds.DomainMatch),
					zap.Int("t2", cfg.Thresholds.Pattern),
					zap.Int("t3", cfg.Thresholds.Personal),
				)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				zap.L().Warn("waterfall: watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
