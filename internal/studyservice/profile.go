package studyservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/observe"
	"github.com/starford/studydesk/internal/sse"
)

// profileValue returns the cached profile of userID, loading it on first use.
// Every change to the value is published as profile.updated.
func (s *Service) profileValue(ctx context.Context, userID string) (*observe.Value[models.Profile], error) {
	s.profMu.Lock()
	defer s.profMu.Unlock()
	if v, ok := s.profiles[userID]; ok {
		return v, nil
	}
	p, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := observe.NewValue(p)
	v.Subscribe(func(p models.Profile) {
		if s.events != nil {
			s.events.Publish(sse.Event{Type: sse.TypeProfileUpdated, User: userID, Data: p})
		}
	})
	s.profiles[userID] = v
	return v, nil
}

// Profile returns the user's profile. A user who never saved one gets an
// empty profile.
func (s *Service) Profile(ctx context.Context, userID string) (models.Profile, error) {
	v, err := s.profileValue(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return v.Get(), nil
}

// UpdateProfile stores the display name and notifies subscribers.
func (s *Service) UpdateProfile(ctx context.Context, userID, displayName string) (models.Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if err := validation.Validate(displayName, validation.Length(0, 100)); err != nil {
		return models.Profile{}, apperr.Invalid(fmt.Errorf("display_name: %w", err))
	}
	v, err := s.profileValue(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	p := models.Profile{UserID: userID, DisplayName: displayName, UpdatedAt: s.timestamp()}
	if err := s.db.UpsertProfile(ctx, p); err != nil {
		return models.Profile{}, err
	}
	v.Set(p)
	return p, nil
}

// SubscribeProfile calls fn with every later change to the user's profile.
func (s *Service) SubscribeProfile(ctx context.Context, userID string, fn func(models.Profile)) (unsubscribe func(), err error) {
	v, err := s.profileValue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return v.Subscribe(fn), nil
}

// Streak returns the user's study streak.
func (s *Service) Streak(ctx context.Context, userID string) (models.Streak, error) {
	return s.db.GetStreak(ctx, userID)
}

// CheckIn records study activity for today and returns the updated streak.
func (s *Service) CheckIn(ctx context.Context, userID string) (models.Streak, error) {
	cur, err := s.db.GetStreak(ctx, userID)
	if err != nil {
		return models.Streak{}, err
	}
	next := Advance(cur, s.now())
	if next == cur {
		return cur, nil
	}
	if err := s.db.PutStreak(ctx, userID, next); err != nil {
		return models.Streak{}, err
	}
	return next, nil
}

// Advance applies one day of study at today to a streak. Studying again on
// the same day changes nothing; studying on the day after the last one
// extends the streak; any longer gap starts a new streak of one day.
func Advance(st models.Streak, today time.Time) models.Streak {
	day := today.Format(dateLayout)
	if st.LastStudyDate == day {
		return st
	}
	next := 1
	if last, err := time.Parse(dateLayout, st.LastStudyDate); err == nil {
		d, _ := time.Parse(dateLayout, day)
		if d.Sub(last) == 24*time.Hour {
			next = st.Current + 1
		}
	}
	st.Current = next
	st.Longest = max(st.Longest, next)
	st.LastStudyDate = day
	return st
}
