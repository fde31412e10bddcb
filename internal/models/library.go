// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// LibraryItemType mirrors the content types the wizard can produce.
type LibraryItemType string

const (
	LibraryItemCarousel LibraryItemType = "carousel"
	LibraryItemText     LibraryItemType = "text"
	LibraryItemImage    LibraryItemType = "image"
	LibraryItemVideo    LibraryItemType = "video"
)

// Valid reports whether t is one of the known item types.
func (t LibraryItemType) Valid() bool {
	switch t {
	case LibraryItemCarousel, LibraryItemText, LibraryItemImage, LibraryItemVideo:
		return true
	}
	return false
}

// LibraryItemStatus is the editorial state of a library item.
type LibraryItemStatus string

const (
	LibraryStatusDraft     LibraryItemStatus = "draft"
	LibraryStatusReady     LibraryItemStatus = "ready"
	LibraryStatusScheduled LibraryItemStatus = "scheduled"
	LibraryStatusPublished LibraryItemStatus = "published"
	LibraryStatusArchived  LibraryItemStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s LibraryItemStatus) Valid() bool {
	switch s {
	case LibraryStatusDraft, LibraryStatusReady, LibraryStatusScheduled,
		LibraryStatusPublished, LibraryStatusArchived:
		return true
	}
	return false
}

// LibraryItem is a piece of social content saved in the user's library.
// Content and Metadata hold JSON-encoded strings written by the wizard
// sync; MediaURLs lists the generated slide images in slide order.
type LibraryItem struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	Type       LibraryItemType   `json:"type"`
	Status     LibraryItemStatus `json:"status"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Metadata   string            `json:"metadata"`
	MediaURLs  []string          `json:"media_urls"`
	CategoryID *uuid.UUID        `json:"category_id,omitempty"`
	WizardID   *uuid.UUID        `json:"wizard_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  *time.Time        `json:"deleted_at,omitempty"`

	// Populated by store methods that join tags.
	Tags []Tag `json:"tags,omitempty"`
}

// IsDeleted returns true once the item has been soft-deleted.
func (i *LibraryItem) IsDeleted() bool {
	return i.DeletedAt != nil
}

// LibraryFilter narrows a library listing. Zero values mean "any".
type LibraryFilter struct {
	Type       LibraryItemType
	Status     LibraryItemStatus
	CategoryID *uuid.UUID
	TagID      *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}
