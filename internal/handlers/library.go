// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"postforge/internal/models"
	"postforge/internal/store"
)

// LibraryStore persists library items.
type LibraryStore interface {
	List(userID uuid.UUID, f models.LibraryFilter) ([]models.LibraryItem, error)
	FindByID(userID, id uuid.UUID) (*models.LibraryItem, error)
	Create(item *models.LibraryItem) (*models.LibraryItem, error)
	Update(item *models.LibraryItem) error
	SoftDelete(userID, id uuid.UUID) error
	SetTags(userID, itemID uuid.UUID, tagIDs []uuid.UUID) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	List(userID uuid.UUID) ([]models.Category, error)
	FindByID(userID, id uuid.UUID) (*models.Category, error)
	Create(c *models.Category) (*models.Category, error)
	Update(c *models.Category) error
	Delete(userID, id uuid.UUID) error
}

// TagStore persists tags.
type TagStore interface {
	List(userID uuid.UUID) ([]models.Tag, error)
	Create(t *models.Tag) (*models.Tag, error)
	Delete(userID, id uuid.UUID) error
}

// ScheduleStore books library items for publication.
type ScheduleStore interface {
	Schedule(userID, itemID uuid.UUID, platform models.Platform, at time.Time) (*models.ScheduledPost, error)
	Upcoming(userID uuid.UUID) ([]models.ScheduledPost, error)
	Cancel(userID, id uuid.UUID) error
}

// Library groups the library, category, tag and schedule handlers.
type Library struct {
	items      LibraryStore
	categories CategoryStore
	tags       TagStore
	schedule   ScheduleStore
}

// NewLibrary creates the library handler group.
func NewLibrary(items LibraryStore, categories CategoryStore, tags TagStore, schedule ScheduleStore) *Library {
	return &Library{items: items, categories: categories, tags: tags, schedule: schedule}
}

const defaultPageSize = 50

// List returns the user's items. Query parameters: type, status,
// category, tag, q, limit, offset.
func (h *Library) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.LibraryFilter{
		Type:   models.LibraryItemType(q.Get("type")),
		Status: models.LibraryItemStatus(q.Get("status")),
		Search: strings.TrimSpace(q.Get("q")),
		Limit:  defaultPageSize,
	}
	if f.Type != "" && !f.Type.Valid() {
		writeError(w, http.StatusBadRequest, "unknown item type")
		return
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown item status")
		return
	}
	for name, dst := range map[string]**uuid.UUID{"category": &f.CategoryID, "tag": &f.TagID} {
		if v := q.Get(name); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid "+name+" id")
				return
			}
			*dst = &id
		}
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n <= 200 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		f.Offset = n
	}

	items, err := h.items.List(currentUser(r), f)
	if err != nil {
		writeInternal(w, "list library", err)
		return
	}
	if items == nil {
		items = []models.LibraryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Get returns one item with its tags.
func (h *Library) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	item, err := h.items.FindByID(currentUser(r), id)
	if err != nil {
		writeInternal(w, "find library item", err)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type itemRequest struct {
	Type       models.LibraryItemType   `json:"type"`
	Status     models.LibraryItemStatus `json:"status"`
	Title      string                   `json:"title"`
	Content    string                   `json:"content"`
	Metadata   string                   `json:"metadata"`
	MediaURLs  []string                 `json:"media_urls"`
	CategoryID *uuid.UUID               `json:"category_id"`
}

// Create adds an item written by hand.
func (h *Library) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateItem(req.Title, req.Type, req.Status); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !h.ownsCategory(w, r, req.CategoryID) {
		return
	}

	created, err := h.items.Create(&models.LibraryItem{
		UserID:     currentUser(r),
		Type:       req.Type,
		Status:     req.Status,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Metadata:   req.Metadata,
		MediaURLs:  req.MediaURLs,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeInternal(w, "create library item", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update replaces an item's fields.
func (h *Library) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		req.Status = models.LibraryStatusDraft
	}
	if msg := validateItem(req.Title, req.Type, req.Status); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !h.ownsCategory(w, r, req.CategoryID) {
		return
	}

	item := &models.LibraryItem{
		ID:         id,
		UserID:     currentUser(r),
		Type:       req.Type,
		Status:     req.Status,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Metadata:   req.Metadata,
		MediaURLs:  req.MediaURLs,
		CategoryID: req.CategoryID,
	}
	if !writeMutation(w, "update library item", h.items.Update(item)) {
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ownsCategory checks that an item's category belongs to the current
// user, answering 400 or 500 itself when it does not hold.
func (h *Library) ownsCategory(w http.ResponseWriter, r *http.Request, id *uuid.UUID) bool {
	if id == nil {
		return true
	}
	c, err := h.categories.FindByID(currentUser(r), *id)
	if err != nil {
		writeInternal(w, "find category", err)
		return false
	}
	if c == nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return false
	}
	return true
}

// Delete soft-deletes an item.
func (h *Library) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if writeMutation(w, "delete library item", h.items.SoftDelete(currentUser(r), id)) {
		w.WriteHeader(http.StatusNoContent)
	}
}

type setTagsRequest struct {
	TagIDs []uuid.UUID `json:"tag_ids"`
}

// SetTags replaces the tag set of an item.
func (h *Library) SetTags(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req setTagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if writeMutation(w, "set item tags", h.items.SetTags(currentUser(r), id, req.TagIDs)) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Categories ---

// Categories lists the user's categories with item counts.
func (h *Library) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(currentUser(r))
	if err != nil {
		writeInternal(w, "list categories", err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// CreateCategory adds a category at the end of the list.
func (h *Library) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateLabel(req.Name, req.Color); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	created, err := h.categories.Create(&models.Category{
		UserID:      currentUser(r),
		Name:        strings.TrimSpace(req.Name),
		Color:       req.Color,
		Description: req.Description,
	})
	if err != nil {
		writeInternal(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateCategory replaces a category's fields.
func (h *Library) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateLabel(req.Name, req.Color); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	c := &models.Category{
		ID:          id,
		UserID:      currentUser(r),
		Name:        strings.TrimSpace(req.Name),
		Color:       req.Color,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if writeMutation(w, "update category", h.categories.Update(c)) {
		writeJSON(w, http.StatusOK, c)
	}
}

// DeleteCategory removes a category; its items become uncategorized.
func (h *Library) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if writeMutation(w, "delete category", h.categories.Delete(currentUser(r), id)) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Tags ---

// Tags lists the user's tags.
func (h *Library) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(currentUser(r))
	if err != nil {
		writeInternal(w, "list tags", err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateTag adds a tag, or recolors an existing one with the same name.
func (h *Library) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateLabel(req.Name, req.Color); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	tag, err := h.tags.Create(&models.Tag{
		UserID: currentUser(r),
		Name:   strings.TrimSpace(req.Name),
		Color:  req.Color,
	})
	if err != nil {
		writeInternal(w, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// DeleteTag removes a tag from every item.
func (h *Library) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	if writeMutation(w, "delete tag", h.tags.Delete(currentUser(r), id)) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Scheduled posts ---

// Upcoming lists pending posts, soonest first.
func (h *Library) Upcoming(w http.ResponseWriter, r *http.Request) {
	posts, err := h.schedule.Upcoming(currentUser(r))
	if err != nil {
		writeInternal(w, "list scheduled posts", err)
		return
	}
	if posts == nil {
		posts = []models.ScheduledPost{}
	}
	writeJSON(w, http.StatusOK, posts)
}

type scheduleRequest struct {
	LibraryItemID uuid.UUID       `json:"library_item_id"`
	Platform      models.Platform `json:"platform"`
	ScheduledFor  time.Time       `json:"scheduled_for"`
}

// Schedule books an item for a platform.
func (h *Library) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Platform.Valid() {
		writeError(w, http.StatusBadRequest, "unknown platform")
		return
	}

	post, err := h.schedule.Schedule(currentUser(r), req.LibraryItemID, req.Platform, req.ScheduledFor)
	switch {
	case errors.Is(err, store.ErrScheduleInPast):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case err != nil:
		writeInternal(w, "schedule post", err)
	default:
		writeJSON(w, http.StatusCreated, post)
	}
}

// CancelSchedule cancels a pending post.
func (h *Library) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid scheduled post id")
		return
	}
	if writeMutation(w, "cancel scheduled post", h.schedule.Cancel(currentUser(r), id)) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeMutation answers 404 for store.ErrNotFound and 500 for other
// errors. It reports whether err was nil.
func writeMutation(w http.ResponseWriter, op string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeInternal(w, op, err)
	}
	return false
}
