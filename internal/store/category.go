// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"postforge/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, user_id, name, color, description, sort_order, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Color, &c.Description,
		&c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns the user's categories ordered by sort_order, with counts of
// non-deleted items.
func (s *CategoryStore) List(userID uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.user_id, c.name, c.color, c.description, c.sort_order,
		       c.created_at, c.updated_at,
		       COUNT(li.id) AS item_count
		FROM categories c
		LEFT JOIN library_items li ON li.category_id = c.id AND li.deleted_at IS NULL
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Color, &c.Description,
			&c.SortOrder, &c.CreatedAt, &c.UpdatedAt, &c.ItemCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category owned by userID. Returns nil if not found.
func (s *CategoryStore) FindByID(userID, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category at the end of the user's list and returns it.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	row := s.db.QueryRow(`
		INSERT INTO categories (user_id, name, color, description, sort_order)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM categories WHERE user_id = $1))
		RETURNING `+categoryColumns,
		c.UserID, c.Name, c.Color, c.Description,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(c *models.Category) error {
	res, err := s.db.Exec(`
		UPDATE categories SET
			name = $1, color = $2, description = $3, sort_order = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
	`, c.Name, c.Color, c.Description, c.SortOrder, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a category. Its items become uncategorized (ON DELETE SET NULL).
func (s *CategoryStore) Delete(userID, id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectAffected(res)
}
