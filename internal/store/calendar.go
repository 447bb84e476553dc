package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/studydesk/internal/models"
)

// dbTime normalises a timestamp so stored values compare lexically.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// UpsertEvent inserts or updates a calendar event.
func (db *DB) UpsertEvent(ctx context.Context, userID string, e models.CalendarEvent) error {
	var end any
	if e.EndDate != nil {
		end = dbTime(*e.EndDate)
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO calendar_events (id, user_id, title, type, subject, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			type       = excluded.type,
			subject    = excluded.subject,
			start_date = excluded.start_date,
			end_date   = excluded.end_date,
			updated_at = excluded.updated_at
		WHERE calendar_events.user_id = excluded.user_id
	`, e.ID, userID, e.Title, e.Type, e.Subject, dbTime(e.StartDate), end, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert event: %w", err)
	}
	return checkUpsert(res, "event")
}

// ListEvents returns events starting in [from, to). Zero bounds are open.
func (db *DB) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]models.CalendarEvent, error) {
	q := `SELECT id, title, type, subject, start_date, end_date, created_at, updated_at
		FROM calendar_events WHERE user_id = ?`
	args := []any{userID}
	if !from.IsZero() {
		q += ` AND start_date >= ?`
		args = append(args, dbTime(from))
	}
	if !to.IsZero() {
		q += ` AND start_date < ?`
		args = append(args, dbTime(to))
	}
	q += ` ORDER BY start_date, id`

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	out := []models.CalendarEvent{}
	for rows.Next() {
		var e models.CalendarEvent
		var end sql.NullTime
		if err := rows.Scan(&e.ID, &e.Title, &e.Type, &e.Subject, &e.StartDate, &end, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			e.EndDate = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEvent removes a calendar event.
func (db *DB) DeleteEvent(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "calendar_events", id, userID)
}

// UpsertClass inserts or updates a weekly schedule entry.
func (db *DB) UpsertClass(ctx context.Context, userID string, c models.ScheduleClass) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO schedule_classes (id, user_id, subject, weekday, start_time, end_time, room, teacher, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject    = excluded.subject,
			weekday    = excluded.weekday,
			start_time = excluded.start_time,
			end_time   = excluded.end_time,
			room       = excluded.room,
			teacher    = excluded.teacher,
			color      = excluded.color
		WHERE schedule_classes.user_id = excluded.user_id
	`, c.ID, userID, c.Subject, c.Weekday, c.StartTime, c.EndTime, c.Room, c.Teacher, c.Color, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert class: %w", err)
	}
	return checkUpsert(res, "class")
}

// ListClasses returns the weekly schedule. A weekday in 0..6 restricts the
// result to that day; any other value returns the whole week.
func (db *DB) ListClasses(ctx context.Context, userID string, weekday int) ([]models.ScheduleClass, error) {
	q := `SELECT id, subject, weekday, start_time, end_time, room, teacher, color, created_at
		FROM schedule_classes WHERE user_id = ?`
	args := []any{userID}
	if weekday >= 0 && weekday <= 6 {
		q += ` AND weekday = ?`
		args = append(args, weekday)
	}
	q += ` ORDER BY weekday, start_time, id`

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list classes: %w", err)
	}
	defer rows.Close()

	out := []models.ScheduleClass{}
	for rows.Next() {
		var c models.ScheduleClass
		if err := rows.Scan(&c.ID, &c.Subject, &c.Weekday, &c.StartTime, &c.EndTime,
			&c.Room, &c.Teacher, &c.Color, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteClass removes a schedule entry.
func (db *DB) DeleteClass(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "schedule_classes", id, userID)
}
