package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

// GetProfile returns the user's profile. A user without a row gets an empty profile.
func (db *DB) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	p := models.Profile{UserID: userID}
	err := db.conn.QueryRowContext(ctx,
		`SELECT display_name, updated_at FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.DisplayName, &p.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, fmt.Errorf("store: get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile stores the user's profile.
func (db *DB) UpsertProfile(ctx context.Context, p models.Profile) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO profiles (user_id, display_name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at   = excluded.updated_at
	`, p.UserID, p.DisplayName, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert profile: %w", err)
	}
	return nil
}

// GetStreak returns the user's study streak; zero when none is recorded.
func (db *DB) GetStreak(ctx context.Context, userID string) (models.Streak, error) {
	var s models.Streak
	err := db.conn.QueryRowContext(ctx,
		`SELECT current_streak, longest_streak, last_study_date FROM streaks WHERE user_id = ?`, userID).
		Scan(&s.Current, &s.Longest, &s.LastStudyDate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Streak{}, fmt.Errorf("store: get streak: %w", err)
	}
	return s, nil
}

// PutStreak stores the user's study streak.
func (db *DB) PutStreak(ctx context.Context, userID string, s models.Streak) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO streaks (user_id, current_streak, longest_streak, last_study_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak  = excluded.current_streak,
			longest_streak  = excluded.longest_streak,
			last_study_date = excluded.last_study_date
	`, userID, s.Current, s.Longest, s.LastStudyDate)
	if err != nil {
		return fmt.Errorf("store: put streak: %w", err)
	}
	return nil
}
