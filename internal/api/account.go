package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/studydesk/internal/ai"
	"github.com/starford/studydesk/internal/studyservice"
)

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), user(r), req.DisplayName)
	if err != nil {
		h.writeError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetStreak handles GET /api/streak.
func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Streak(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "get streak", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CheckIn handles POST /api/streak/check-in.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.CheckIn(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "check in", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Search handles GET /api/search?q=.
//
//	@Summary		Global search over notes, keywords, mind maps and tags
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	false	"Search text"
//	@Success		200	{object}	search.Response
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Search(r.Context(), user(r), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Assist handles POST /api/ai/{action}.
func (h *Handler) Assist(w http.ResponseWriter, r *http.Request) {
	action, err := ai.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeAIError(w, err)
		return
	}
	var req AssistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Assist(r.Context(), action, req.Text, req.Count)
	if err != nil {
		writeAIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func editorKey(r *http.Request) (studyservice.EditorKind, string, error) {
	kind, err := studyservice.ParseEditorKind(chi.URLParam(r, "kind"))
	return kind, idParam(r), err
}

// PushEditor handles PUT /api/editors/{kind}/{id}. The body is the editor's
// full current content; the first push opens the session.
func (h *Handler) PushEditor(w http.ResponseWriter, r *http.Request) {
	kind, id, err := editorKey(r)
	if err != nil {
		h.writeError(w, r, "push editor", err)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid body"))
		return
	}
	st, err := h.editors.Push(r.Context(), user(r), kind, id, raw)
	if err != nil {
		h.writeError(w, r, "push editor", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// EditorStatus handles GET /api/editors/{kind}/{id}.
func (h *Handler) EditorStatus(w http.ResponseWriter, r *http.Request) {
	kind, id, err := editorKey(r)
	if err != nil {
		h.writeError(w, r, "editor status", err)
		return
	}
	st, err := h.editors.Status(user(r), kind, id)
	if err != nil {
		h.writeError(w, r, "editor status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CloseEditor handles DELETE /api/editors/{kind}/{id}, flushing unsaved
// content before answering.
func (h *Handler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	kind, id, err := editorKey(r)
	if err != nil {
		h.writeError(w, r, "close editor", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := h.editors.Close(ctx, user(r), kind, id); err != nil {
		h.writeError(w, r, "close editor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
