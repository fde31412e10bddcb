// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WizardStatus tracks a wizard run from input to a saved library item.
type WizardStatus string

const (
	WizardDraft           WizardStatus = "draft"
	WizardProcessing      WizardStatus = "processing"
	WizardNarrativesReady WizardStatus = "narratives_ready"
	WizardContentReady    WizardStatus = "content_ready"
	WizardImagesReady     WizardStatus = "images_ready"
	WizardCompleted       WizardStatus = "completed"
	WizardFailed          WizardStatus = "failed"
)

// DefaultNumberOfSlides is used when a carousel wizard does not set one.
const DefaultNumberOfSlides = 10

// ContentWizard is one run of the multi-step generation flow. The
// generated artefacts are kept as raw JSON so the row stays independent
// of the pipeline's Go types.
type ContentWizard struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id"`
	Status              WizardStatus    `json:"status"`
	CurrentStep         int             `json:"current_step"`
	ContentType         string          `json:"content_type"`
	Theme               string          `json:"theme"`
	Objective           string          `json:"objective"`
	TargetAudience      string          `json:"target_audience"`
	NumberOfSlides      int             `json:"number_of_slides"`
	CTA                 string          `json:"cta"`
	NegativeTerms       []string        `json:"negative_terms"`
	SourceURL           string          `json:"source_url"`
	ExtractedContent    string          `json:"extracted_content"`
	Research            string          `json:"research"`
	RAGContext          string          `json:"rag_context"`
	Narratives          json.RawMessage `json:"narratives,omitempty"`
	SelectedNarrativeID string          `json:"selected_narrative_id"`
	GeneratedContent    json.RawMessage `json:"generated_content,omitempty"`
	ImageOptions        json.RawMessage `json:"image_options,omitempty"`
	GeneratedImages     json.RawMessage `json:"generated_images,omitempty"`
	LibraryItemID       *uuid.UUID      `json:"library_item_id,omitempty"`
	ErrorMessage        string          `json:"error_message"`
	Attempts            int             `json:"attempts"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// HasNarratives reports whether narrative options were already generated.
func (w *ContentWizard) HasNarratives() bool {
	return len(w.Narratives) > 0 && string(w.Narratives) != "null" && string(w.Narratives) != "[]"
}

// HasContent reports whether content was already generated.
func (w *ContentWizard) HasContent() bool {
	return len(w.GeneratedContent) > 0 && string(w.GeneratedContent) != "null"
}

// WantsImages reports whether the wizard was configured to render images.
func (w *ContentWizard) WantsImages() bool {
	return len(w.ImageOptions) > 0 && string(w.ImageOptions) != "null"
}
