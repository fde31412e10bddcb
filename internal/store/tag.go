// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"postforge/internal/models"
)

// TagStore manages the user's tags.
type TagStore struct {
	db *sql.DB
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// List returns the user's tags ordered by name.
func (s *TagStore) List(userID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, color, created_at
		FROM tags WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Create inserts a tag. Creating a name that already exists returns the
// existing tag with its color updated.
func (s *TagStore) Create(t *models.Tag) (*models.Tag, error) {
	out := &models.Tag{}
	err := s.db.QueryRow(`
		INSERT INTO tags (user_id, name, color)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO UPDATE SET color = EXCLUDED.color
		RETURNING id, user_id, name, color, created_at
	`, t.UserID, t.Name, t.Color).Scan(&out.ID, &out.UserID, &out.Name, &out.Color, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return out, nil
}

// Delete removes a tag and its item links.
func (s *TagStore) Delete(userID, id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return expectAffected(res)
}
