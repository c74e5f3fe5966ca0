package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mjbernaski/word-card/internal/logging"
)

// FileWatcher uses kernel file notifications to observe one file. It
// watches the parent directory rather than the file itself, so the watch
// survives the atomic replace (write temp, rename) that producers use.
type FileWatcher struct {
	path string
	log  logging.Logger
}

func NewFileWatcher(path string, log logging.Logger) *FileWatcher {
	return &FileWatcher{path: path, log: log}
}

func (w *FileWatcher) Watch(ctx context.Context) (<-chan Change, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	base := filepath.Base(w.path)
	out := make(chan Change, 1)

	go func() {
		defer close(out)
		defer fw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				ch := Change{Path: w.path, Source: "fsnotify"}
				if info, err := os.Stat(w.path); err == nil {
					ch.ModTime = info.ModTime()
				}
				select {
				case out <- ch:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.Warn(ctx, "file watch error", "path", w.path, "error", err)
			}
		}
	}()
	return out, nil
}
