package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/forgewasm/wasm-forge/crate"
	"github.com/forgewasm/wasm-forge/errors"
)

// DefaultDebounce coalesces editor save bursts into a single rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watcher triggers rebuilds when crate sources change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	cr       *crate.Crate
	debounce time.Duration
}

// New watches the crate's manifest and source tree. Subdirectories created
// later are picked up as they appear.
func New(cr *crate.Crate, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.IO(errors.PhaseWatch, "create watcher", err)
	}

	if err := fsw.Add(cr.Dir); err != nil {
		fsw.Close()
		return nil, errors.IO(errors.PhaseWatch, "watch "+cr.Dir, err)
	}

	// The source tree may not exist yet for a crate resolved by directory
	// name only; the root watch still catches its creation.
	srcErr := filepath.WalkDir(cr.SourceDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if srcErr != nil && !os.IsNotExist(srcErr) {
		fsw.Close()
		return nil, errors.IO(errors.PhaseWatch, "watch source tree", srcErr)
	}

	return &Watcher{fsw: fsw, cr: cr, debounce: debounce}, nil
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks, invoking rebuild after each coalesced batch of relevant
// changes, until ctx is canceled. A failed rebuild is logged and the loop
// keeps watching; the next change gets a fresh attempt.
func (w *Watcher) Run(ctx context.Context, rebuild func(context.Context) error) error {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					// Build output directories churn constantly and never
					// hold sources.
					if base := filepath.Base(ev.Name); base == "target" || base == "docs" {
						continue
					}
					if err := w.fsw.Add(ev.Name); err != nil {
						Logger().Warn("watch new directory", zap.String("path", ev.Name), zap.Error(err))
					}
					continue
				}
			}
			if !Relevant(ev.Name) {
				continue
			}
			Logger().Debug("source changed",
				zap.String("path", ev.Name),
				zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			Logger().Warn("watch error", zap.Error(err))

		case <-pending:
			timer = nil
			pending = nil
			if err := rebuild(ctx); err != nil {
				Logger().Error("rebuild failed", zap.Error(err))
			}
		}
	}
}

// Relevant reports whether a change to the named file should trigger a
// rebuild. Only Rust sources and the cargo manifest/lockfile count; editor
// temp files and build output churn are ignored.
func Relevant(name string) bool {
	switch filepath.Base(name) {
	case crate.ManifestName, "Cargo.lock":
		return true
	}
	return filepath.Ext(name) == ".rs"
}
