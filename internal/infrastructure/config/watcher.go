package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harborview/governor/pkg/domain"
)

// PolicyWatcher reloads the policy file on change and hands the parsed config
// to the callback. A reload that fails validation is dropped; the previously
// active policy stays in force.
type PolicyWatcher struct {
	path     string
	debounce time.Duration
	onReload func(*domain.PolicyConfig)
	onError  func(error)
}

// NewPolicyWatcher creates a watcher for the given policy file.
func NewPolicyWatcher(path string, onReload func(*domain.PolicyConfig), onError func(error)) *PolicyWatcher {
	return &PolicyWatcher{
		path:     path,
		debounce: 250 * time.Millisecond,
		onReload: onReload,
		onError:  onError,
	}
}

// Run watches until the context is cancelled. The parent directory is
// watched, not the file, so atomic rename-into-place saves are seen.
func (w *PolicyWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var timer *time.Timer
	reloads := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case reloads <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			schedule()
		case <-reloads:
			cfg, err := LoadPolicyConfig(w.path)
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}
			w.onReload(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
