// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"postforge/internal/models"
)

// WizardStore persists content wizard runs.
type WizardStore struct {
	db *sql.DB
}

// NewWizardStore returns a new WizardStore.
func NewWizardStore(db *sql.DB) *WizardStore {
	return &WizardStore{db: db}
}

const wizardColumns = `id, user_id, status, current_step, content_type, theme, objective,
	target_audience, number_of_slides, cta, negative_terms, source_url, extracted_content,
	research, rag_context, narratives, selected_narrative_id, generated_content,
	image_options, generated_images, library_item_id, error_message, attempts,
	created_at, updated_at`

func scanWizard(scanner interface{ Scan(...any) error }) (*models.ContentWizard, error) {
	var w models.ContentWizard
	var negative string
	var narratives, content, imageOpts, images []byte
	err := scanner.Scan(
		&w.ID, &w.UserID, &w.Status, &w.CurrentStep, &w.ContentType, &w.Theme, &w.Objective,
		&w.TargetAudience, &w.NumberOfSlides, &w.CTA, &negative, &w.SourceURL, &w.ExtractedContent,
		&w.Research, &w.RAGContext, &narratives, &w.SelectedNarrativeID, &content,
		&imageOpts, &images, &w.LibraryItemID, &w.ErrorMessage, &w.Attempts,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(negative), &w.NegativeTerms); err != nil {
		return nil, fmt.Errorf("decode negative terms: %w", err)
	}
	w.Narratives = rawOrNil(narratives)
	w.GeneratedContent = rawOrNil(content)
	w.ImageOptions = rawOrNil(imageOpts)
	w.GeneratedImages = rawOrNil(images)
	return &w, nil
}

func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}

// jsonbArg maps an empty raw message to SQL NULL.
func jsonbArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func encodeTerms(terms []string) (string, error) {
	if terms == nil {
		terms = []string{}
	}
	b, err := json.Marshal(terms)
	if err != nil {
		return "", fmt.Errorf("encode negative terms: %w", err)
	}
	return string(b), nil
}

// Create inserts a new wizard in the draft state and returns it.
func (s *WizardStore) Create(w *models.ContentWizard) (*models.ContentWizard, error) {
	negative, err := encodeTerms(w.NegativeTerms)
	if err != nil {
		return nil, err
	}
	if w.NumberOfSlides <= 0 {
		w.NumberOfSlides = models.DefaultNumberOfSlides
	}
	if w.ContentType == "" {
		w.ContentType = string(models.LibraryItemCarousel)
	}

	created, err := scanWizard(s.db.QueryRow(`
		INSERT INTO content_wizards (
			user_id, status, content_type, theme, objective, target_audience,
			number_of_slides, cta, negative_terms, source_url, research, rag_context, image_options
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+wizardColumns,
		w.UserID, models.WizardDraft, w.ContentType, w.Theme, w.Objective, w.TargetAudience,
		w.NumberOfSlides, w.CTA, negative, w.SourceURL, w.Research, w.RAGContext, jsonbArg(w.ImageOptions),
	))
	if err != nil {
		return nil, fmt.Errorf("create wizard: %w", err)
	}
	return created, nil
}

// FindByID retrieves a wizard owned by userID. Returns nil if not found.
func (s *WizardStore) FindByID(userID, id uuid.UUID) (*models.ContentWizard, error) {
	w, err := scanWizard(s.db.QueryRow(`
		SELECT `+wizardColumns+` FROM content_wizards WHERE id = $1 AND user_id = $2
	`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wizard: %w", err)
	}
	return w, nil
}

// Get retrieves a wizard by ID without an owner check. It is meant for the
// background worker, which only sees IDs its own API enqueued.
func (s *WizardStore) Get(id uuid.UUID) (*models.ContentWizard, error) {
	w, err := scanWizard(s.db.QueryRow(`SELECT `+wizardColumns+` FROM content_wizards WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wizard: %w", err)
	}
	return w, nil
}

// Update writes every step field of the wizard back to its row.
func (s *WizardStore) Update(w *models.ContentWizard) error {
	negative, err := encodeTerms(w.NegativeTerms)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE content_wizards SET
			status = $1, current_step = $2, content_type = $3, theme = $4, objective = $5,
			target_audience = $6, number_of_slides = $7, cta = $8, negative_terms = $9,
			source_url = $10, extracted_content = $11, research = $12, rag_context = $13,
			narratives = $14, selected_narrative_id = $15, generated_content = $16,
			image_options = $17, generated_images = $18, error_message = $19,
			updated_at = NOW()
		WHERE id = $20 AND user_id = $21
	`, w.Status, w.CurrentStep, w.ContentType, w.Theme, w.Objective,
		w.TargetAudience, w.NumberOfSlides, w.CTA, negative,
		w.SourceURL, w.ExtractedContent, w.Research, w.RAGContext,
		jsonbArg(w.Narratives), w.SelectedNarrativeID, jsonbArg(w.GeneratedContent),
		jsonbArg(w.ImageOptions), jsonbArg(w.GeneratedImages), w.ErrorMessage,
		w.ID, w.UserID)
	if err != nil {
		return fmt.Errorf("update wizard: %w", err)
	}
	return expectAffected(res)
}

// SetStatus records a status change and an optional error message.
func (s *WizardStore) SetStatus(id uuid.UUID, status models.WizardStatus, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE content_wizards SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("set wizard status: %w", err)
	}
	return nil
}

// IncrementAttempts bumps the background attempt counter and returns the
// new value.
func (s *WizardStore) IncrementAttempts(id uuid.UUID) (int, error) {
	var attempts int
	err := s.db.QueryRow(`
		UPDATE content_wizards SET attempts = attempts + 1, status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING attempts
	`, models.WizardProcessing, id).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment wizard attempts: %w", err)
	}
	return attempts, nil
}
