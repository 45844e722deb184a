package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchSkills blocks watching the skills directory, reloading the registry
// after each burst of changes to recognized files. Events within the
// debounce window coalesce into a single reload. A failed reload keeps the
// previous registry and the watcher running. Returns nil when ctx ends.
func (e *Engine) WatchSkills(ctx context.Context) error {
	dir := e.config.SkillsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create skills directory %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	e.logger.InfoContext(ctx, "watching skills directory",
		"dir", dir, "debounce", e.config.WatchDebounce)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !reloadWorthy(event) {
				continue
			}
			e.logger.DebugContext(ctx, "skills directory changed",
				"op", event.Op.String(), "path", event.Name)
			if timer == nil {
				timer = time.NewTimer(e.config.WatchDebounce)
				pending = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(e.config.WatchDebounce)
			}

		case <-pending:
			timer, pending = nil, nil
			if err := e.LoadSkills(ctx); err != nil {
				e.logger.ErrorContext(ctx, "skill reload failed", "err", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.ErrorContext(ctx, "watcher error", "err", err)
		}
	}
}

// reloadWorthy reports whether a filesystem event can change the registry:
// create, write, remove, or rename of a file with a recognized extension.
func reloadWorthy(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	_, _, ok := classifySkillFile(filepath.Base(event.Name))
	return ok
}
