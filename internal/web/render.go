package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/errors"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "cards", "archive"
}

// ListPageData is the template data for the card list page.
type ListPageData struct {
	PageData
	Cards    []card.Card
	Sort     string
	Archived string
	Query    string
}

// DetailPageData is the template data for the card detail page.
type DetailPageData struct {
	PageData
	Card      card.Card
	NotesHTML template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"formatTime": formatTime,
		"deref":      deref,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation: JSON for
// API consumers, a full page otherwise.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	cErr := asCardError(err)

	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		writeError(w, err)
		return
	}

	r.renderPageStatus(w, cErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", cErr.Status),
			Version: r.version,
		},
		StatusCode: cErr.Status,
		Message:    cErr.Message,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a coded error as JSON.
func writeError(w http.ResponseWriter, err error) {
	cErr := asCardError(err)
	writeJSON(w, cErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(cErr.Code),
			"message": cErr.Message,
			"status":  cErr.Status,
		},
	})
}

func asCardError(err error) *errors.CardError {
	var cErr *errors.CardError
	if !stderrors.As(err, &cErr) {
		cErr = errors.NewInternal(err)
	}
	return cErr
}

// renderMarkdown converts the notes markdown to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a timestamp as "2006-01-02 15:04" UTC. Templates pass
// both time.Time and the nullable *time.Time fields.
func formatTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("2006-01-02 15:04")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04")
	}
	return ""
}

// deref dereferences a *string for templates, returning "" when nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
