// Package watch detects changes to a shared snapshot, using whichever
// primitive the transport offers: kernel file notifications, modification
// time polling, or object metadata queries.
package watch

import (
	"context"
	"sync"
	"time"
)

// Change is one observed modification of the watched snapshot.
type Change struct {
	Path    string    // file path or object key
	ModTime time.Time // modification time as reported by the transport
	Source  string    // which watcher saw it: "fsnotify", "poll", "s3"
}

// Source watches one shared snapshot for changes.
type Source interface {
	// Watch delivers a Change per observed modification until ctx is
	// canceled, then closes the channel and releases any underlying
	// watch handle. A missing file is quiet, never an error.
	Watch(ctx context.Context) (<-chan Change, error)
}

// Merge fans several sources into one channel. The merged channel closes
// once every source channel has closed.
func Merge(ctx context.Context, sources ...Source) (<-chan Change, error) {
	out := make(chan Change, 1)
	var wg sync.WaitGroup

	for _, src := range sources {
		ch, err := src.Watch(ctx)
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range ch {
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}
