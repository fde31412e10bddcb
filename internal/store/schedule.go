// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"postforge/internal/models"
)

// ErrScheduleInPast is returned when a post is scheduled for a time that
// has already passed.
var ErrScheduleInPast = errors.New("scheduled time must be in the future")

// ScheduleStore manages scheduled posts.
type ScheduleStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewScheduleStore returns a new ScheduleStore.
func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db, now: time.Now}
}

const scheduleColumns = `id, user_id, library_item_id, platform, scheduled_for, status,
	error_message, created_at, updated_at`

func scanScheduledPost(scanner interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var p models.ScheduledPost
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.LibraryItemID, &p.Platform, &p.ScheduledFor, &p.Status,
		&p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Schedule books a library item for publication on a platform. The item
// must belong to the user and not be deleted; it is moved to the
// "scheduled" status in the same transaction.
func (s *ScheduleStore) Schedule(userID, itemID uuid.UUID, platform models.Platform, at time.Time) (*models.ScheduledPost, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("schedule post: unknown platform %q", platform)
	}
	if !at.After(s.now()) {
		return nil, ErrScheduleInPast
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE library_items SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL
	`, models.LibraryStatusScheduled, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("mark item scheduled: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}

	post, err := scanScheduledPost(tx.QueryRow(`
		INSERT INTO scheduled_posts (user_id, library_item_id, platform, scheduled_for)
		VALUES ($1, $2, $3, $4)
		RETURNING `+scheduleColumns,
		userID, itemID, platform, at,
	))
	if err != nil {
		return nil, fmt.Errorf("insert scheduled post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit scheduled post: %w", err)
	}
	return post, nil
}

// Upcoming returns the user's pending posts from now on, soonest first.
func (s *ScheduleStore) Upcoming(userID uuid.UUID) ([]models.ScheduledPost, error) {
	rows, err := s.db.Query(`
		SELECT `+scheduleColumns+` FROM scheduled_posts
		WHERE user_id = $1 AND status = $2 AND scheduled_for >= $3
		ORDER BY scheduled_for ASC
	`, userID, models.SchedulePending, s.now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming posts: %w", err)
	}
	defer rows.Close()

	var posts []models.ScheduledPost
	for rows.Next() {
		p, err := scanScheduledPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// Cancel marks a pending post as cancelled.
func (s *ScheduleStore) Cancel(userID, id uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE scheduled_posts SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = $4
	`, models.ScheduleCancelled, id, userID, models.SchedulePending)
	if err != nil {
		return fmt.Errorf("cancel scheduled post: %w", err)
	}
	return expectAffected(res)
}
