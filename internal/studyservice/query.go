package studyservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/studydesk/internal/ai"
	"github.com/starford/studydesk/internal/metrics"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/search"
)

// Stats counts the user's study items.
func (s *Service) Stats(ctx context.Context, userID string) (models.Stats, error) {
	return s.db.Stats(ctx, userID)
}

// Search runs global search over the user's notes, mind maps and tags.
func (s *Service) Search(ctx context.Context, userID, query string) (search.Response, error) {
	corpus, err := s.db.Corpus(ctx, userID)
	if err != nil {
		return search.Response{}, err
	}
	resp := search.Run(query, corpus)
	if resp.Query != "" {
		metrics.SearchResults.Observe(float64(len(resp.Results)))
	}
	return resp, nil
}

// Assist passes text to the AI assistant.
func (s *Service) Assist(ctx context.Context, action ai.Action, text string, count int) (ai.Result, error) {
	if s.assistant == nil {
		metrics.TrackAI(string(action), "not_configured")
		return ai.Result{}, ai.ErrNotConfigured
	}
	res, err := s.assistant.Invoke(ctx, action, text, count)
	metrics.TrackAI(string(action), aiOutcome(err))
	if err != nil {
		s.logger.Warn("ai request failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return ai.Result{}, err
	}
	return res, nil
}

func aiOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ai.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ai.ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, ai.ErrEmptyText), errors.Is(err, ai.ErrInvalidAction):
		return "invalid"
	default:
		return "error"
	}
}
