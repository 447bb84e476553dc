package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/studyservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc     *studyservice.Service
	editors *studyservice.Editors
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *studyservice.Service, editors *studyservice.Editors, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, editors: editors, logger: logger}
}

func user(r *http.Request) string { return UserFrom(r.Context()) }

func idParam(r *http.Request) string { return chi.URLParam(r, "id") }

// ListNotes handles GET /api/notes.
//
//	@Summary		List Cornell notes, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	map[string][]models.CornellNote
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListCornellNotes(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// GetNote handles GET /api/notes/{id}. The ETag header carries the note's
// version for use with If-Match.
//
//	@Summary		Get a single Cornell note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.CornellNote
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetCornellNote(r.Context(), user(r), idParam(r))
	if err != nil {
		h.writeError(w, r, "get note", err)
		return
	}
	w.Header().Set("ETag", `"`+studyservice.NoteVersion(note)+`"`)
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a Cornell note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.CornellNote	true	"Note to create"
//	@Success		201		{object}	models.CornellNote
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var n models.CornellNote
	if !decodeJSON(w, r, &n) {
		return
	}
	note, err := h.svc.CreateCornellNote(r.Context(), user(r), n)
	if err != nil {
		h.writeError(w, r, "create note", err)
		return
	}
	w.Header().Set("ETag", `"`+studyservice.NoteVersion(note)+`"`)
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id} with optimistic concurrency via If-Match.
//
//	@Summary		Replace a Cornell note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"Version from ETag"
//	@Param			body		body		models.CornellNote	true	"New content"
//	@Success		200			{object}	models.CornellNote
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var n models.CornellNote
	if !decodeJSON(w, r, &n) {
		return
	}
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)
	note, err := h.svc.UpdateCornellNote(r.Context(), user(r), idParam(r), n, ifMatch)
	if err != nil {
		h.writeError(w, r, "update note", err)
		return
	}
	w.Header().Set("ETag", `"`+studyservice.NoteVersion(note)+`"`)
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCornellNote(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFolders handles GET /api/folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.ListFolders(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list folders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// GetFolder handles GET /api/folders/{id}.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.GetFolder(r.Context(), user(r), idParam(r))
	if err != nil {
		h.writeError(w, r, "get folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var f models.Folder
	if !decodeJSON(w, r, &f) {
		return
	}
	created, err := h.svc.CreateFolder(r.Context(), user(r), f)
	if err != nil {
		h.writeError(w, r, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateFolder handles PUT /api/folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var f models.Folder
	if !decodeJSON(w, r, &f) {
		return
	}
	updated, err := h.svc.UpdateFolder(r.Context(), user(r), idParam(r), f)
	if err != nil {
		h.writeError(w, r, "update folder", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteFolder handles DELETE /api/folders/{id}. Subfolders go with it;
// items inside become unfiled.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMindMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := h.svc.ListMindMaps(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list mind maps", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mind_maps": maps})
}

func (h *Handler) GetMindMap(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMindMap(r.Context(), user(r), idParam(r))
	if err != nil {
		h.writeError(w, r, "get mind map", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) CreateMindMap(w http.ResponseWriter, r *http.Request) {
	var m models.MindMap
	if !decodeJSON(w, r, &m) {
		return
	}
	created, err := h.svc.CreateMindMap(r.Context(), user(r), m)
	if err != nil {
		h.writeError(w, r, "create mind map", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateMindMap(w http.ResponseWriter, r *http.Request) {
	var m models.MindMap
	if !decodeJSON(w, r, &m) {
		return
	}
	updated, err := h.svc.UpdateMindMap(r.Context(), user(r), idParam(r), m)
	if err != nil {
		h.writeError(w, r, "update mind map", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteMindMap(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMindMap(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete mind map", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// CreateTag handles POST /api/tags. Duplicate names answer 409.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var t models.Tag
	if !decodeJSON(w, r, &t) {
		return
	}
	created, err := h.svc.CreateTag(r.Context(), user(r), t)
	if err != nil {
		h.writeError(w, r, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTag handles PUT /api/tags/{id}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var t models.Tag
	if !decodeJSON(w, r, &t) {
		return
	}
	updated, err := h.svc.UpdateTag(r.Context(), user(r), idParam(r), t)
	if err != nil {
		h.writeError(w, r, "update tag", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTag handles DELETE /api/tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTag(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
