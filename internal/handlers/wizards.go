// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"postforge/internal/models"
	"postforge/internal/pipeline"
	"postforge/internal/wizard"
)

// WizardStore persists wizard rows.
type WizardStore interface {
	Create(w *models.ContentWizard) (*models.ContentWizard, error)
	FindByID(userID, id uuid.UUID) (*models.ContentWizard, error)
	Update(w *models.ContentWizard) error
}

// WizardSteps runs pipeline stages against a stored wizard.
type WizardSteps interface {
	Narratives(ctx context.Context, w *models.ContentWizard) error
	Content(ctx context.Context, w *models.ContentWizard) error
	Images(ctx context.Context, w *models.ContentWizard) error
	Save(w *models.ContentWizard) (*models.LibraryItem, error)
}

// Enqueuer hands a wizard to the background worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, wizardID uuid.UUID) error
}

// Wizards groups the content wizard handlers.
type Wizards struct {
	store WizardStore
	steps WizardSteps
	queue Enqueuer
}

// NewWizards creates the wizard handler group. queue may be nil, in
// which case Enqueue answers 503.
func NewWizards(store WizardStore, steps WizardSteps, queue Enqueuer) *Wizards {
	return &Wizards{store: store, steps: steps, queue: queue}
}

// Create starts a new wizard in the draft state.
func (h *Wizards) Create(w http.ResponseWriter, r *http.Request) {
	var in wizardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateWizard(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	wz := &models.ContentWizard{UserID: currentUser(r)}
	if err := applyInput(wz, &in); err != nil {
		writeInternal(w, "encode image options", err)
		return
	}

	created, err := h.store.Create(wz)
	if err != nil {
		writeInternal(w, "create wizard", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get returns one wizard of the current user.
func (h *Wizards) Get(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wz)
}

// Update replaces the editable step data of a wizard.
func (h *Wizards) Update(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}

	var in wizardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateWizard(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := applyInput(wz, &in); err != nil {
		writeInternal(w, "encode image options", err)
		return
	}

	if err := h.store.Update(wz); err != nil {
		writeInternal(w, "update wizard", err)
		return
	}
	writeJSON(w, http.StatusOK, wz)
}

// Narratives generates narrative options for the wizard.
func (h *Wizards) Narratives(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeStep(w, wz, h.steps.Narratives(r.Context(), wz))
}

type contentRequest struct {
	SelectedNarrativeID string `json:"selected_narrative_id"`
}

// Content generates content for the selected narrative. The body may
// pick the narrative in the same call.
func (h *Wizards) Content(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}

	var req contentRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	if id := strings.TrimSpace(req.SelectedNarrativeID); id != "" {
		wz.SelectedNarrativeID = id
	}
	h.writeStep(w, wz, h.steps.Content(r.Context(), wz))
}

type imagesRequest struct {
	ImageOptions *pipeline.ImageOptions `json:"image_options"`
}

// Images renders slide images for the generated content. The body may
// replace the stored image options.
func (h *Wizards) Images(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}

	var req imagesRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	if req.ImageOptions != nil {
		if err := pipeline.ValidateImageOptions(req.ImageOptions); err != nil {
			writeResult(w, pipeline.Result[models.ContentWizard]{Error: err.Error()})
			return
		}
		raw, err := json.Marshal(req.ImageOptions)
		if err != nil {
			writeInternal(w, "encode image options", err)
			return
		}
		wz.ImageOptions = raw
	}
	h.writeStep(w, wz, h.steps.Images(r.Context(), wz))
}

type enqueueResponse struct {
	WizardID uuid.UUID `json:"wizard_id"`
	Queued   bool      `json:"queued"`
}

// Enqueue hands the wizard to the background worker.
func (h *Wizards) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "background processing is not available")
		return
	}
	wz, ok := h.load(w, r)
	if !ok {
		return
	}
	if wz.LibraryItemID != nil {
		writeError(w, http.StatusConflict, "Wizard already saved to the library.")
		return
	}
	if err := h.queue.Enqueue(r.Context(), wz.ID); err != nil {
		writeInternal(w, "enqueue wizard", err)
		return
	}
	writeJSON(w, http.StatusAccepted, enqueueResponse{WizardID: wz.ID, Queued: true})
}

// Save syncs the finished wizard into the library.
func (h *Wizards) Save(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}
	item, err := h.steps.Save(wz)
	if errors.Is(err, wizard.ErrNoContent) {
		writeError(w, http.StatusConflict, "Generate content before saving.")
		return
	}
	if errors.Is(err, wizard.ErrAlreadySaved) {
		writeError(w, http.StatusConflict, "Wizard already saved to the library.")
		return
	}
	if err != nil {
		writeInternal(w, "save wizard", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// load fetches the {id} wizard of the current user, answering 400/404
// itself when it cannot.
func (h *Wizards) load(w http.ResponseWriter, r *http.Request) (*models.ContentWizard, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid wizard id")
		return nil, false
	}
	wz, err := h.store.FindByID(currentUser(r), id)
	if err != nil {
		writeInternal(w, "find wizard", err)
		return nil, false
	}
	if wz == nil {
		writeError(w, http.StatusNotFound, "wizard not found")
		return nil, false
	}
	return wz, true
}

// writeStep maps the outcome of a wizard step onto the result envelope.
// Pipeline and precondition failures are 422; anything else is a 500.
func (h *Wizards) writeStep(w http.ResponseWriter, wz *models.ContentWizard, err error) {
	var stageErr *pipeline.StageError
	switch {
	case err == nil:
		writeResult(w, pipeline.Result[models.ContentWizard]{Success: true, Data: wz})
	case errors.As(err, &stageErr),
		errors.Is(err, wizard.ErrNoNarrative),
		errors.Is(err, wizard.ErrNoContent):
		writeResult(w, pipeline.Result[models.ContentWizard]{Error: err.Error()})
	default:
		writeInternal(w, "wizard step", err)
	}
}

// decodeOptional decodes a body that may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

// applyInput copies validated input onto the wizard.
func applyInput(wz *models.ContentWizard, in *wizardInput) error {
	if in.ContentType != "" {
		wz.ContentType = in.ContentType
	}
	wz.Theme = in.Theme
	wz.Objective = strings.TrimSpace(in.Objective)
	wz.TargetAudience = strings.TrimSpace(in.TargetAudience)
	if in.NumberOfSlides != 0 {
		wz.NumberOfSlides = in.NumberOfSlides
	}
	wz.CTA = strings.TrimSpace(in.CTA)
	wz.NegativeTerms = cleanTerms(in.NegativeTerms)
	if in.SourceURL != wz.SourceURL {
		wz.ExtractedContent = ""
	}
	wz.SourceURL = in.SourceURL
	wz.Research = in.Research
	wz.RAGContext = in.RAGContext
	if in.SelectedNarrativeID != nil {
		wz.SelectedNarrativeID = strings.TrimSpace(*in.SelectedNarrativeID)
	}
	if in.ImageOptions != nil {
		raw, err := json.Marshal(in.ImageOptions)
		if err != nil {
			return err
		}
		wz.ImageOptions = raw
	}
	return nil
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
