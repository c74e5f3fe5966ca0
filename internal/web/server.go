// Package web serves the card collection over HTTP: HTML pages for people,
// a JSON API and live-update streams (SSE, websocket) for programs.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mjbernaski/word-card/internal/hub"
	"github.com/mjbernaski/word-card/internal/logging"
	"github.com/mjbernaski/word-card/internal/store"
	"github.com/mjbernaski/word-card/internal/syncer"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewServer creates and configures the HTTP server. sy may be nil when the
// process runs without a sync transport; the sync endpoints then report 503.
func NewServer(st *store.Store, events *hub.Hub, sy *syncer.Syncer, logger logging.Logger, version, bind string, port int) *http.Server {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	h := &Handlers{
		store:    st,
		events:   events,
		syncer:   sy,
		renderer: NewRenderer(templateSub, version),
		log:      logger,
	}

	mux := http.NewServeMux()

	// HTML pages
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cards", http.StatusFound)
	})
	mux.HandleFunc("GET /cards", h.HandleListPage)
	mux.HandleFunc("GET /cards/{id}", h.HandleDetailPage)

	// JSON API
	mux.HandleFunc("GET /api/cards", h.HandleList)
	mux.HandleFunc("POST /api/cards", h.HandleCreate)
	mux.HandleFunc("GET /api/cards/{id}", h.HandleGet)
	mux.HandleFunc("PATCH /api/cards/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /api/cards/{id}", h.HandleDelete)
	mux.HandleFunc("POST /api/cards/{id}/archive", h.HandleArchive)
	mux.HandleFunc("POST /api/cards/{id}/restore", h.HandleRestore)
	mux.HandleFunc("POST /api/dedupe", h.HandleDedupe)
	mux.HandleFunc("GET /api/sync/status", h.HandleSyncStatus)
	mux.HandleFunc("POST /api/sync/now", h.HandleSyncNow)

	// Live updates
	mux.HandleFunc("GET /events", h.HandleEvents)
	mux.HandleFunc("GET /ws", h.HandleWebsocket)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: securityHeaders(mux),
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger logging.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	ctx := context.Background()
	logger.Info(ctx, "serving", "addr", srv.Addr)
	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn(ctx, "binding to all interfaces; the server may be reachable from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info(ctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
