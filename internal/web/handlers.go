package web

import (
	"encoding/json"
	"net/http"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/dedupe"
	"github.com/mjbernaski/word-card/internal/errors"
	"github.com/mjbernaski/word-card/internal/hub"
	"github.com/mjbernaski/word-card/internal/logging"
	"github.com/mjbernaski/word-card/internal/store"
	"github.com/mjbernaski/word-card/internal/syncer"
)

// Handlers contains HTTP route handlers.
type Handlers struct {
	store    *store.Store
	events   *hub.Hub
	syncer   *syncer.Syncer
	renderer *Renderer
	log      logging.Logger
}

func listInputFromQuery(r *http.Request) store.ListInput {
	q := r.URL.Query()
	return store.ListInput{
		Sort:     store.SortOrder(q.Get("sort")),
		Archived: store.ArchiveFilter(q.Get("archived")),
		Query:    q.Get("q"),
	}
}

// HandleListPage handles GET /cards, the card list page.
func (h *Handlers) HandleListPage(w http.ResponseWriter, r *http.Request) {
	in := listInputFromQuery(r)
	cards, err := h.store.List(in)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	nav := "cards"
	if in.Archived == store.FilterArchived {
		nav = "archive"
	}
	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Cards",
			Version: h.renderer.version,
			Nav:     nav,
		},
		Cards:    cards,
		Sort:     string(in.Sort),
		Archived: string(in.Archived),
		Query:    in.Query,
	})
}

// HandleDetailPage handles GET /cards/{id}, a single card with its notes
// rendered as markdown.
func (h *Handlers) HandleDetailPage(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   c.Text,
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Card:      c,
		NotesHTML: renderMarkdown(c.Notes),
	})
}

// HandleList handles GET /api/cards.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	cards, err := h.store.List(listInputFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards, "count": len(cards)})
}

type createRequest struct {
	Text     string        `json:"text"`
	Category card.Category `json:"category"`
	Notes    string        `json:"notes"`
}

// HandleCreate handles POST /api/cards.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	c, err := h.store.Create(store.CreateInput{Text: req.Text, Category: req.Category, Notes: req.Notes})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleGet handles GET /api/cards/{id}.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type updateRequest struct {
	Text            *string         `json:"text"`
	Notes           *string         `json:"notes"`
	BackgroundColor *string         `json:"backgroundColor"`
	TextColor       *string         `json:"textColor"`
	FontStyle       *card.FontStyle `json:"fontStyle"`
	Category        *card.Category  `json:"category"`
	CornerRadius    *int            `json:"cornerRadius"`
	BorderColor     *string         `json:"borderColor"`
	RemoveBorder    bool            `json:"removeBorder"`
	BorderWidth     *int            `json:"borderWidth"`
	DPI             *int            `json:"dpi"`
}

// HandleUpdate handles PATCH /api/cards/{id}. Absent fields stay unchanged.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	c, err := h.store.Update(r.PathValue("id"), store.UpdateInput{
		Text:            req.Text,
		Notes:           req.Notes,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
		FontStyle:       req.FontStyle,
		Category:        req.Category,
		CornerRadius:    req.CornerRadius,
		BorderColor:     req.BorderColor,
		RemoveBorder:    req.RemoveBorder,
		BorderWidth:     req.BorderWidth,
		DPI:             req.DPI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /api/cards/{id}. Removal is permanent.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// HandleArchive handles POST /api/cards/{id}/archive.
func (h *Handlers) HandleArchive(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Archive(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleRestore handles POST /api/cards/{id}/restore.
func (h *Handlers) HandleRestore(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Restore(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleDedupe handles POST /api/dedupe?mode=id|content, a maintenance pass
// over the whole collection.
func (h *Handlers) HandleDedupe(w http.ResponseWriter, r *http.Request) {
	var kept []card.Card
	var result dedupe.Result

	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "content":
		kept, result = dedupe.ByContent(h.store.All())
	case "id":
		kept, result = dedupe.ByID(h.store.All())
	default:
		writeError(w, errors.NewInvalidRequest("mode must be one of: id, content"))
		return
	}

	if result.Removed > 0 {
		h.store.ReplaceAll(kept)
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleSyncStatus handles GET /api/sync/status.
func (h *Handlers) HandleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		writeError(w, &errors.CardError{
			Code:    errors.ErrTransportUnavailable,
			Status:  http.StatusServiceUnavailable,
			Message: "sync is not configured",
		})
		return
	}
	writeJSON(w, http.StatusOK, h.syncer.Status())
}

// HandleSyncNow handles POST /api/sync/now: one full import+export cycle.
func (h *Handlers) HandleSyncNow(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		writeError(w, &errors.CardError{
			Code:    errors.ErrTransportUnavailable,
			Status:  http.StatusServiceUnavailable,
			Message: "sync is not configured",
		})
		return
	}
	if err := h.syncer.SyncNow(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.syncer.Status())
}
