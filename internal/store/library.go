// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"postforge/internal/models"
)

// LibraryStore manages library items and their tag links.
type LibraryStore struct {
	db *sql.DB
}

// NewLibraryStore creates a new LibraryStore with the given database connection.
func NewLibraryStore(db *sql.DB) *LibraryStore {
	return &LibraryStore{db: db}
}

const libraryColumns = `id, user_id, type, status, title, content, metadata, media_urls,
	category_id, wizard_id, created_at, updated_at, deleted_at`

const defaultLibraryLimit = 50

func scanLibraryItem(scanner interface{ Scan(...any) error }) (*models.LibraryItem, error) {
	var item models.LibraryItem
	var mediaURLs string
	err := scanner.Scan(
		&item.ID, &item.UserID, &item.Type, &item.Status, &item.Title,
		&item.Content, &item.Metadata, &mediaURLs,
		&item.CategoryID, &item.WizardID, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(mediaURLs), &item.MediaURLs); err != nil {
		return nil, fmt.Errorf("decode media urls: %w", err)
	}
	return &item, nil
}

func encodeMediaURLs(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("encode media urls: %w", err)
	}
	return string(b), nil
}

// List returns the user's non-deleted items matching the filter, newest first.
func (s *LibraryStore) List(userID uuid.UUID, f models.LibraryFilter) ([]models.LibraryItem, error) {
	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []any{userID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Type != "" {
		where = append(where, "type = "+arg(f.Type))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = "+arg(*f.CategoryID))
	}
	if f.TagID != nil {
		where = append(where, "id IN (SELECT library_item_id FROM library_item_tags WHERE tag_id = "+arg(*f.TagID)+")")
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := arg("%" + q + "%")
		where = append(where, "(title ILIKE "+p+" OR content ILIKE "+p+")")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLibraryLimit
	}
	query := `SELECT ` + libraryColumns + ` FROM library_items WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(f.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list library items: %w", err)
	}
	defer rows.Close()

	var items []models.LibraryItem
	for rows.Next() {
		item, err := scanLibraryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan library item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// FindByID retrieves a non-deleted item owned by userID, with its tags.
// Returns nil if not found.
func (s *LibraryStore) FindByID(userID, id uuid.UUID) (*models.LibraryItem, error) {
	item, err := scanLibraryItem(s.db.QueryRow(`
		SELECT `+libraryColumns+` FROM library_items
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find library item: %w", err)
	}

	tags, err := s.itemTags(id)
	if err != nil {
		return nil, err
	}
	item.Tags = tags
	return item, nil
}

func (s *LibraryStore) itemTags(itemID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.user_id, t.name, t.color, t.created_at
		FROM tags t
		JOIN library_item_tags lt ON lt.tag_id = t.id
		WHERE lt.library_item_id = $1
		ORDER BY t.name
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Create inserts a new library item and returns it.
func (s *LibraryStore) Create(item *models.LibraryItem) (*models.LibraryItem, error) {
	media, err := encodeMediaURLs(item.MediaURLs)
	if err != nil {
		return nil, err
	}
	if item.Status == "" {
		item.Status = models.LibraryStatusDraft
	}

	created, err := scanLibraryItem(s.db.QueryRow(`
		INSERT INTO library_items (user_id, type, status, title, content, metadata, media_urls, category_id, wizard_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+libraryColumns,
		item.UserID, item.Type, item.Status, item.Title, orEmptyObject(item.Content),
		orEmptyObject(item.Metadata), media, item.CategoryID, item.WizardID,
	))
	if err != nil {
		return nil, fmt.Errorf("create library item: %w", err)
	}
	return created, nil
}

// Update modifies an existing item. Returns ErrNotFound when the item
// does not exist, is deleted or belongs to another user.
func (s *LibraryStore) Update(item *models.LibraryItem) error {
	media, err := encodeMediaURLs(item.MediaURLs)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE library_items SET
			type = $1, status = $2, title = $3, content = $4, metadata = $5,
			media_urls = $6, category_id = $7, updated_at = NOW()
		WHERE id = $8 AND user_id = $9 AND deleted_at IS NULL
	`, item.Type, item.Status, item.Title, orEmptyObject(item.Content), orEmptyObject(item.Metadata),
		media, item.CategoryID, item.ID, item.UserID)
	if err != nil {
		return fmt.Errorf("update library item: %w", err)
	}
	return expectAffected(res)
}

// SoftDelete marks an item as deleted. The row is kept for recovery.
func (s *LibraryStore) SoftDelete(userID, id uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE library_items SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, id, userID)
	if err != nil {
		return fmt.Errorf("soft delete library item: %w", err)
	}
	return expectAffected(res)
}

// SetTags replaces the item's tag set. Tags owned by other users are ignored.
func (s *LibraryStore) SetTags(userID, itemID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var owned bool
	err = tx.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM library_items WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL)
	`, itemID, userID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("check library item owner: %w", err)
	}
	if !owned {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM library_item_tags WHERE library_item_id = $1`, itemID); err != nil {
		return fmt.Errorf("clear item tags: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err := tx.Exec(`
			INSERT INTO library_item_tags (library_item_id, tag_id)
			SELECT $1, id FROM tags WHERE id = $2 AND user_id = $3
			ON CONFLICT DO NOTHING
		`, itemID, tagID, userID)
		if err != nil {
			return fmt.Errorf("link tag %s: %w", tagID, err)
		}
	}

	return tx.Commit()
}

// ErrAlreadySaved means the wizard is already linked to a library item.
var ErrAlreadySaved = errors.New("wizard already saved to the library")

// SaveGenerated turns a finished wizard into a library item. The generated
// content and the image list are stored as JSON-encoded strings and the
// wizard row is linked to the new item in the same transaction. A wizard
// that is already linked rolls the insert back with ErrAlreadySaved.
func (s *LibraryStore) SaveGenerated(w *models.ContentWizard, title string, content, metadata json.RawMessage, mediaURLs []string) (*models.LibraryItem, error) {
	itemType := models.LibraryItemType(w.ContentType)
	if !itemType.Valid() {
		return nil, fmt.Errorf("save generated: unknown content type %q", w.ContentType)
	}
	media, err := encodeMediaURLs(mediaURLs)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := scanLibraryItem(tx.QueryRow(`
		INSERT INTO library_items (user_id, type, status, title, content, metadata, media_urls, wizard_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+libraryColumns,
		w.UserID, itemType, models.LibraryStatusDraft, title,
		orEmptyObject(string(content)), orEmptyObject(string(metadata)), media, w.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("insert generated item: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE content_wizards SET library_item_id = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4 AND library_item_id IS NULL
	`, item.ID, models.WizardCompleted, w.ID, w.UserID)
	if err != nil {
		return nil, fmt.Errorf("link wizard to item: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("link wizard to item: %w", err)
	} else if n == 0 {
		return nil, ErrAlreadySaved
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit generated item: %w", err)
	}
	return item, nil
}

func orEmptyObject(s string) string {
	if strings.TrimSpace(s) == "" {
		return "{}"
	}
	return s
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
