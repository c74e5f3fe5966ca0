package watch

import (
	"context"
	"os"
	"time"

	"github.com/mjbernaski/word-card/internal/clock"
)

// Poller observes one file by periodically comparing its modification
// time. It is the fallback for filesystems where kernel notifications do
// not fire reliably, such as network mounts and cloud-synced folders.
type Poller struct {
	path     string
	interval time.Duration
	clk      clock.Clock
}

func NewPoller(path string, interval time.Duration, clk clock.Clock) *Poller {
	return &Poller{path: path, interval: interval, clk: clk}
}

func (p *Poller) Watch(ctx context.Context) (<-chan Change, error) {
	out := make(chan Change, 1)

	var last time.Time
	if info, err := os.Stat(p.path); err == nil {
		last = info.ModTime()
	}

	go func() {
		defer close(out)
		ticker := p.clk.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				info, err := os.Stat(p.path)
				if err != nil {
					continue // absent file stays quiet
				}
				mod := info.ModTime()
				if mod.Equal(last) {
					continue
				}
				last = mod
				select {
				case out <- Change{Path: p.path, ModTime: mod, Source: "poll"}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
