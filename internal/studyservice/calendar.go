package studyservice

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// AllWeekdays makes ListClasses return the whole week.
const AllWeekdays = -1

// CreateEvent stores a new calendar event.
func (s *Service) CreateEvent(ctx context.Context, userID string, e models.CalendarEvent) (models.CalendarEvent, error) {
	now := s.timestamp()
	e.ID = newID()
	e.CreatedAt = now
	e.UpdatedAt = now
	return s.putEvent(ctx, userID, e, sse.Created)
}

// UpdateEvent replaces an existing event.
func (s *Service) UpdateEvent(ctx context.Context, userID, id string, e models.CalendarEvent) (models.CalendarEvent, error) {
	events, err := s.db.ListEvents(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return models.CalendarEvent{}, err
	}
	existing, ok := lo.Find(events, func(x models.CalendarEvent) bool { return x.ID == id })
	if !ok {
		return models.CalendarEvent{}, fmt.Errorf("studyservice: update event: %w", apperr.ErrNotFound)
	}
	e.ID = id
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = s.timestamp()
	return s.putEvent(ctx, userID, e, sse.Updated)
}

func (s *Service) putEvent(ctx context.Context, userID string, e models.CalendarEvent, change sse.Change) (models.CalendarEvent, error) {
	if e.Type == "" {
		e.Type = "other"
	}
	if err := validate(e); err != nil {
		return models.CalendarEvent{}, err
	}
	if err := s.db.UpsertEvent(ctx, userID, e); err != nil {
		return models.CalendarEvent{}, err
	}
	s.changed(userID, change, KindEvent, e.ID)
	return e, nil
}

// ListEvents returns the events starting within [from, to]. A zero bound is
// open.
func (s *Service) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]models.CalendarEvent, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperr.Invalid(fmt.Errorf("range end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339)))
	}
	events, err := s.db.ListEvents(ctx, userID, from, to)
	return nonNil(events), err
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteEvent(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindEvent, id)
	return nil
}

// CreateClass stores a new weekly class.
func (s *Service) CreateClass(ctx context.Context, userID string, c models.ScheduleClass) (models.ScheduleClass, error) {
	c.ID = newID()
	c.CreatedAt = s.timestamp()
	return s.putClass(ctx, userID, c, sse.Created)
}

// UpdateClass replaces an existing class.
func (s *Service) UpdateClass(ctx context.Context, userID, id string, c models.ScheduleClass) (models.ScheduleClass, error) {
	classes, err := s.db.ListClasses(ctx, userID, AllWeekdays)
	if err != nil {
		return models.ScheduleClass{}, err
	}
	existing, ok := lo.Find(classes, func(x models.ScheduleClass) bool { return x.ID == id })
	if !ok {
		return models.ScheduleClass{}, fmt.Errorf("studyservice: update class: %w", apperr.ErrNotFound)
	}
	c.ID = id
	c.CreatedAt = existing.CreatedAt
	return s.putClass(ctx, userID, c, sse.Updated)
}

func (s *Service) putClass(ctx context.Context, userID string, c models.ScheduleClass, change sse.Change) (models.ScheduleClass, error) {
	if err := validate(c); err != nil {
		return models.ScheduleClass{}, err
	}
	if c.EndTime < c.StartTime {
		return models.ScheduleClass{}, apperr.Invalid(fmt.Errorf("class ends at %s before it starts at %s", c.EndTime, c.StartTime))
	}
	if err := s.db.UpsertClass(ctx, userID, c); err != nil {
		return models.ScheduleClass{}, err
	}
	s.changed(userID, change, KindClass, c.ID)
	return c, nil
}

// ListClasses returns the classes held on weekday (0 = Sunday), or the whole
// week for AllWeekdays.
func (s *Service) ListClasses(ctx context.Context, userID string, weekday int) ([]models.ScheduleClass, error) {
	classes, err := s.db.ListClasses(ctx, userID, weekday)
	return nonNil(classes), err
}

// TodayClasses returns the classes held on the current weekday.
func (s *Service) TodayClasses(ctx context.Context, userID string) ([]models.ScheduleClass, error) {
	return s.ListClasses(ctx, userID, int(s.now().Weekday()))
}

// DeleteClass removes a class.
func (s *Service) DeleteClass(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteClass(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindClass, id)
	return nil
}
