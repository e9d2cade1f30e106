package preset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the preset at path every time it is written or replaced and
// hands each file that loads cleanly to fn. Load errors go to onErr and
// watching continues. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(*File), onErr func(error)) error {
	return watch(ctx, path, nil, fn, onErr)
}

func watch(ctx context.Context, path string, ready chan<- struct{}, fn func(*File), onErr func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("preset: watch: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("preset: watch: %w", err)
	}
	// Editors save by rename, so the directory is watched rather than the file.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("preset: watch %q: %w", path, err)
	}
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if name, _ := filepath.Abs(ev.Name); name != target {
				continue
			}
			f, err := Load(target)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			fn(f)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(fmt.Errorf("preset: watch: %w", err))
			}
		}
	}
}
