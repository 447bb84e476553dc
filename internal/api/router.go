package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/studydesk/internal/studyservice"
)

// Streamer serves a per-user server-sent event stream. *sse.Broker satisfies it.
type Streamer interface {
	Stream(w http.ResponseWriter, r *http.Request, userID string)
}

// Deps are the collaborators the API routes call into.
type Deps struct {
	Service *studyservice.Service
	Editors *studyservice.Editors
	Events  Streamer // optional
	Auth    AuthConfig
	Logger  *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted. Every route
// runs behind the auth middleware.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Service, d.Editors, d.Logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.Auth))

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", h.ListFolders)
		r.Post("/", h.CreateFolder)
		r.Get("/{id}", h.GetFolder)
		r.Put("/{id}", h.UpdateFolder)
		r.Delete("/{id}", h.DeleteFolder)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Get("/{id}", h.GetNote)
		r.Put("/{id}", h.UpdateNote)
		r.Delete("/{id}", h.DeleteNote)
	})

	r.Route("/mindmaps", func(r chi.Router) {
		r.Get("/", h.ListMindMaps)
		r.Post("/", h.CreateMindMap)
		r.Get("/{id}", h.GetMindMap)
		r.Put("/{id}", h.UpdateMindMap)
		r.Delete("/{id}", h.DeleteMindMap)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Put("/{id}", h.UpdateTag)
		r.Delete("/{id}", h.DeleteTag)
	})

	r.Route("/decks", func(r chi.Router) {
		r.Get("/", h.ListDecks)
		r.Post("/", h.CreateDeck)
		r.Get("/{id}", h.GetDeck)
		r.Put("/{id}", h.UpdateDeck)
		r.Delete("/{id}", h.DeleteDeck)

		r.Get("/{id}/cards", h.ListCards)
		r.Post("/{id}/cards", h.AddCards)
		r.Post("/{id}/cards/import", h.ImportCards)
		r.Put("/{id}/cards/{cardID}", h.UpdateCard)
		r.Delete("/{id}/cards/{cardID}", h.DeleteCard)
	})

	r.Route("/glossary", func(r chi.Router) {
		r.Get("/", h.ListGlossary)
		r.Post("/", h.CreateGlossaryTerm)
		r.Put("/{id}", h.UpdateGlossaryTerm)
		r.Delete("/{id}", h.DeleteGlossaryTerm)
	})

	r.Route("/content", func(r chi.Router) {
		r.Get("/", h.ListContent)
		r.Post("/", h.CreateContent)
		r.Get("/{id}", h.GetContent)
		r.Put("/{id}", h.UpdateContent)
		r.Delete("/{id}", h.DeleteContent)
	})

	r.Route("/calendar", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})

	r.Route("/schedule", func(r chi.Router) {
		r.Get("/", h.ListClasses)
		r.Get("/today", h.TodayClasses)
		r.Post("/", h.CreateClass)
		r.Put("/{id}", h.UpdateClass)
		r.Delete("/{id}", h.DeleteClass)
	})

	r.Route("/concepts", func(r chi.Router) {
		r.Get("/", h.ListConcepts)
		r.Post("/", h.CreateConcept)
		r.Get("/{id}", h.GetConcept)
		r.Put("/{id}", h.UpdateConcept)
		r.Delete("/{id}", h.DeleteConcept)
	})
	r.Post("/relationships", h.CreateRelationship)
	r.Delete("/relationships/{id}", h.DeleteRelationship)

	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Get("/streak", h.GetStreak)
	r.Post("/streak/check-in", h.CheckIn)
	r.Get("/stats", h.Stats)

	r.Get("/search", h.Search)
	r.Post("/ai/{action}", h.Assist)

	r.Route("/editors/{kind}/{id}", func(r chi.Router) {
		r.Put("/", h.PushEditor)
		r.Get("/", h.EditorStatus)
		r.Delete("/", h.CloseEditor)
	})

	// Live change feed, scoped to the caller.
	if d.Events != nil {
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			d.Events.Stream(w, r, UserFrom(r.Context()))
		})
	}

	return r
}
