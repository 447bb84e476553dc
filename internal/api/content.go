package api

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/models"
)

// ListContent handles GET /api/content. ?unread=true drops items already read.
func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListContentItems(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list content", err)
		return
	}
	if r.URL.Query().Get("unread") == "true" {
		items = lo.Filter(items, func(c models.ContentItem, _ int) bool { return !c.IsRead })
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetContent handles GET /api/content/{id}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetContentItem(r.Context(), user(r), idParam(r))
	if err != nil {
		h.writeError(w, r, "get content", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateContent handles POST /api/content.
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var c models.ContentItem
	if !decodeJSON(w, r, &c) {
		return
	}
	created, err := h.svc.CreateContentItem(r.Context(), user(r), c)
	if err != nil {
		h.writeError(w, r, "create content", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var c models.ContentItem
	if !decodeJSON(w, r, &c) {
		return
	}
	updated, err := h.svc.UpdateContentItem(r.Context(), user(r), idParam(r), c)
	if err != nil {
		h.writeError(w, r, "update content", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteContentItem(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete content", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
