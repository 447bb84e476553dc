package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/studyservice"
)

// ListDecks handles GET /api/decks.
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.svc.ListDecks(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list decks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": decks})
}

// GetDeck handles GET /api/decks/{id}.
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDeck(r.Context(), user(r), idParam(r))
	if err != nil {
		h.writeError(w, r, "get deck", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDeck handles POST /api/decks.
func (h *Handler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var d models.Deck
	if !decodeJSON(w, r, &d) {
		return
	}
	created, err := h.svc.CreateDeck(r.Context(), user(r), d)
	if err != nil {
		h.writeError(w, r, "create deck", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateDeck handles PUT /api/decks/{id}.
func (h *Handler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	var d models.Deck
	if !decodeJSON(w, r, &d) {
		return
	}
	updated, err := h.svc.UpdateDeck(r.Context(), user(r), idParam(r), d)
	if err != nil {
		h.writeError(w, r, "update deck", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteDeck handles DELETE /api/decks/{id}. The deck's cards go with it.
func (h *Handler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDeck(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete deck", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCards handles GET /api/decks/{id}/cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListFlashcards(r.Context(), user(r), idParam(r))
	if err != nil {
		h.writeError(w, r, "list cards", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

// AddCards handles POST /api/decks/{id}/cards. The body lists one or more
// front/back pairs; all are stored or none.
func (h *Handler) AddCards(w http.ResponseWriter, r *http.Request) {
	var req CardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Cards) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("cards are required"))
		return
	}
	cards, err := h.svc.AddFlashcards(r.Context(), user(r), idParam(r), req.Cards)
	if err != nil {
		h.writeError(w, r, "add cards", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"cards": cards})
}

// ImportCards handles POST /api/decks/{id}/cards/import with a CSV body of
// "front,back" rows.
func (h *Handler) ImportCards(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	n, err := h.svc.ImportFlashcardsCSV(r.Context(), user(r), idParam(r), r.Body)
	if err != nil {
		h.writeError(w, r, "import cards", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: n})
}

// UpdateCard handles PUT /api/decks/{id}/cards/{cardID}.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var p models.CardPair
	if !decodeJSON(w, r, &p) {
		return
	}
	card, err := h.svc.UpdateFlashcard(r.Context(), user(r), idParam(r), chi.URLParam(r, "cardID"), p)
	if err != nil {
		h.writeError(w, r, "update card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/decks/{id}/cards/{cardID}.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFlashcard(r.Context(), user(r), chi.URLParam(r, "cardID")); err != nil {
		h.writeError(w, r, "delete card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGlossary handles GET /api/glossary.
func (h *Handler) ListGlossary(w http.ResponseWriter, r *http.Request) {
	terms, err := h.svc.ListGlossary(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list glossary", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": terms})
}

func (h *Handler) CreateGlossaryTerm(w http.ResponseWriter, r *http.Request) {
	var g models.GlossaryTerm
	if !decodeJSON(w, r, &g) {
		return
	}
	created, err := h.svc.CreateGlossaryTerm(r.Context(), user(r), g)
	if err != nil {
		h.writeError(w, r, "create glossary term", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateGlossaryTerm(w http.ResponseWriter, r *http.Request) {
	var g models.GlossaryTerm
	if !decodeJSON(w, r, &g) {
		return
	}
	updated, err := h.svc.UpdateGlossaryTerm(r.Context(), user(r), idParam(r), g)
	if err != nil {
		h.writeError(w, r, "update glossary term", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteGlossaryTerm(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGlossaryTerm(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete glossary term", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEvents handles GET /api/calendar?from=&to=. Bounds are RFC 3339
// timestamps or yyyy-mm-dd dates; either may be omitted.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTime(q.Get("from"))
	if err != nil {
		h.writeError(w, r, "list events", err)
		return
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		h.writeError(w, r, "list events", err)
		return
	}
	events, err := h.svc.ListEvents(r.Context(), user(r), from, to)
	if err != nil {
		h.writeError(w, r, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Invalid(fmt.Errorf("invalid time %q", s))
	}
	return t, nil
}

// CreateEvent handles POST /api/calendar.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var e models.CalendarEvent
	if !decodeJSON(w, r, &e) {
		return
	}
	created, err := h.svc.CreateEvent(r.Context(), user(r), e)
	if err != nil {
		h.writeError(w, r, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateEvent handles PUT /api/calendar/{id}.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var e models.CalendarEvent
	if !decodeJSON(w, r, &e) {
		return
	}
	updated, err := h.svc.UpdateEvent(r.Context(), user(r), idParam(r), e)
	if err != nil {
		h.writeError(w, r, "update event", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteEvent handles DELETE /api/calendar/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListClasses handles GET /api/schedule?weekday=N, where N is 0 (Sunday)
// to 6. Without weekday the whole week is returned.
func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	weekday := studyservice.AllWeekdays
	if s := r.URL.Query().Get("weekday"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 6 {
			writeJSON(w, http.StatusBadRequest, errorBody("weekday must be 0-6"))
			return
		}
		weekday = n
	}
	classes, err := h.svc.ListClasses(r.Context(), user(r), weekday)
	if err != nil {
		h.writeError(w, r, "list classes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

// TodayClasses handles GET /api/schedule/today.
func (h *Handler) TodayClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.TodayClasses(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "today classes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var c models.ScheduleClass
	if !decodeJSON(w, r, &c) {
		return
	}
	created, err := h.svc.CreateClass(r.Context(), user(r), c)
	if err != nil {
		h.writeError(w, r, "create class", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	var c models.ScheduleClass
	if !decodeJSON(w, r, &c) {
		return
	}
	updated, err := h.svc.UpdateClass(r.Context(), user(r), idParam(r), c)
	if err != nil {
		h.writeError(w, r, "update class", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteClass(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete class", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListConcepts handles GET /api/concepts.
func (h *Handler) ListConcepts(w http.ResponseWriter, r *http.Request) {
	concepts, err := h.svc.ListConcepts(r.Context(), user(r))
	if err != nil {
		h.writeError(w, r, "list concepts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"concepts": concepts})
}

// GetConcept handles GET /api/concepts/{id}. The response lists the
// concept's neighbours with the direction of each link.
func (h *Handler) GetConcept(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetConcept(r.Context(), user(r), idParam(r))
	if err != nil {
		h.writeError(w, r, "get concept", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateConcept handles POST /api/concepts.
func (h *Handler) CreateConcept(w http.ResponseWriter, r *http.Request) {
	var c models.Concept
	if !decodeJSON(w, r, &c) {
		return
	}
	created, err := h.svc.CreateConcept(r.Context(), user(r), c)
	if err != nil {
		h.writeError(w, r, "create concept", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateConcept handles PUT /api/concepts/{id}.
func (h *Handler) UpdateConcept(w http.ResponseWriter, r *http.Request) {
	var c models.Concept
	if !decodeJSON(w, r, &c) {
		return
	}
	updated, err := h.svc.UpdateConcept(r.Context(), user(r), idParam(r), c)
	if err != nil {
		h.writeError(w, r, "update concept", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteConcept handles DELETE /api/concepts/{id}.
func (h *Handler) DeleteConcept(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteConcept(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete concept", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateRelationship handles POST /api/relationships.
func (h *Handler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var rel models.Relationship
	if !decodeJSON(w, r, &rel) {
		return
	}
	created, err := h.svc.CreateRelationship(r.Context(), user(r), rel)
	if err != nil {
		h.writeError(w, r, "create relationship", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteRelationship handles DELETE /api/relationships/{id}.
func (h *Handler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRelationship(r.Context(), user(r), idParam(r)); err != nil {
		h.writeError(w, r, "delete relationship", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
