// Package syncer drives the replication cycle for one replica: debounced
// exports of local edits, merges of observed remote changes, and the guard
// rails around them (echo suppression, import/export mutual exclusion).
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/mjbernaski/word-card/internal/clock"
	"github.com/mjbernaski/word-card/internal/hub"
	"github.com/mjbernaski/word-card/internal/logging"
	"github.com/mjbernaski/word-card/internal/merge"
	"github.com/mjbernaski/word-card/internal/snapshot"
	"github.com/mjbernaski/word-card/internal/store"
	"github.com/mjbernaski/word-card/internal/watch"
)

// State names the phase the sync loop is in.
type State string

const (
	StateIdle      State = "idle"
	StateImporting State = "importing"
	StateExporting State = "exporting"
)

// Status is a point-in-time view of the sync loop, served by the status
// endpoint and the CLI.
type Status struct {
	State      State        `json:"state"`
	LastImport time.Time    `json:"lastImport,omitzero"`
	LastExport time.Time    `json:"lastExport,omitzero"`
	LastCounts merge.Counts `json:"lastCounts"`
	LastError  string       `json:"lastError,omitempty"`
}

// Options tunes the sync heuristics.
type Options struct {
	AppName    string        // stamped into exported snapshots
	Debounce   time.Duration // quiet period before a burst of edits exports
	EchoWindow time.Duration // grace window after an export during which observed changes are presumed self-inflicted
}

// Syncer owns one replica's replication cycle. Import and export are
// mutually exclusive because both run on the single Run goroutine; triggers
// arriving mid-operation queue up and are handled afterwards, never dropped.
type Syncer struct {
	store     *store.Store
	events    *hub.Hub
	transport Transport
	clk       clock.Clock
	log       logging.Logger
	opts      Options

	localCh chan struct{} // coalescing: one pending signal is enough
	syncCh  chan chan error

	mu              sync.Mutex
	status          Status
	lastExportAt    time.Time
	exportedVersion uint64
	fileCreated     bool
}

func New(s *store.Store, events *hub.Hub, transport Transport, clk clock.Clock, log logging.Logger, opts Options) *Syncer {
	return &Syncer{
		store:     s,
		events:    events,
		transport: transport,
		clk:       clk,
		log:       log,
		opts:      opts,
		localCh:   make(chan struct{}, 1),
		syncCh:    make(chan chan error),
	}
}

// Run executes the replication loop until ctx is canceled. changes carries
// observed modifications of the shared snapshot; it may be nil when no
// watcher is configured (manual sync only).
func (s *Syncer) Run(ctx context.Context, changes <-chan watch.Change) error {
	sub := s.events.Subscribe()
	defer sub.Close()
	go func() {
		for {
			if _, ok := sub.Next(); !ok {
				return
			}
			select {
			case s.localCh <- struct{}{}:
			default:
			}
		}
	}()

	// Join the collective: adopt whatever the shared snapshot holds, then
	// publish local state. The first export creates a missing file.
	s.cycle(ctx)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.localCh:
			// Coalesce a burst of edits into one export. The timer is armed
			// by the first edit; later edits ride along until it fires.
			if debounce == nil {
				debounce = s.clk.After(s.opts.Debounce)
			}

		case <-debounce:
			debounce = nil
			s.export(ctx)

		case ch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.handleRemote(ctx, ch)

		case reply := <-s.syncCh:
			reply <- s.cycle(ctx)
		}
	}
}

// SyncNow runs one full import+export cycle on the loop goroutine and
// reports its outcome. It blocks until the in-flight operation, if any,
// completes.
func (s *Syncer) SyncNow(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.syncCh <- reply:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current sync status.
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Syncer) handleRemote(ctx context.Context, ch watch.Change) {
	s.mu.Lock()
	sinceExport := s.clk.Now().Sub(s.lastExportAt)
	exported := !s.lastExportAt.IsZero()
	s.mu.Unlock()

	if exported && sinceExport < s.opts.EchoWindow {
		s.log.Debug(ctx, "ignoring self-echo", "source", ch.Source, "since_export", sinceExport)
		return
	}
	s.importRemote(ctx)
}

// cycle imports then exports. The export also runs when the import found
// nothing, so a missing shared file gets created.
func (s *Syncer) cycle(ctx context.Context) error {
	if err := s.importRemote(ctx); err != nil {
		return err
	}
	return s.export(ctx)
}

func (s *Syncer) importRemote(ctx context.Context) error {
	s.setState(StateImporting)
	defer s.setState(StateIdle)

	snap, exists, err := s.transport.Load(ctx)
	if err != nil {
		s.log.Error(ctx, "import failed", "error", err)
		s.setError(err)
		return err
	}
	if !exists {
		return nil
	}

	counts := merge.MergeSnapshot(s.store, snap)
	s.mu.Lock()
	s.status.LastImport = s.clk.Now()
	s.status.LastCounts = counts
	s.status.LastError = ""
	s.mu.Unlock()
	s.log.Info(ctx, "imported snapshot",
		"producer", snap.AppName,
		"imported", counts.Imported, "updated", counts.Updated, "deleted", counts.Deleted)

	if counts.Changed() {
		// Make merge results visible to the other replicas right away
		// instead of applying them silently.
		return s.export(ctx)
	}
	return nil
}

func (s *Syncer) export(ctx context.Context) error {
	version, cards := s.store.Snapshot()

	s.mu.Lock()
	unchanged := s.fileCreated && version == s.exportedVersion
	s.mu.Unlock()
	if unchanged {
		return nil
	}

	s.setState(StateExporting)
	defer s.setState(StateIdle)

	snap := snapshot.New(cards, s.opts.AppName, s.clk.Now())
	if err := s.transport.Store(ctx, snap); err != nil {
		// Keep the exported version stale so the next debounce retries.
		s.log.Error(ctx, "export failed", "error", err)
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.exportedVersion = version
	s.fileCreated = true
	s.lastExportAt = s.clk.Now()
	s.status.LastExport = s.lastExportAt
	s.status.LastError = ""
	s.mu.Unlock()
	s.log.Info(ctx, "exported snapshot", "cards", len(cards))
	return nil
}

func (s *Syncer) setState(st State) {
	s.mu.Lock()
	s.status.State = st
	s.mu.Unlock()
}

func (s *Syncer) setError(err error) {
	s.mu.Lock()
	s.status.LastError = err.Error()
	s.mu.Unlock()
}
