// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"postforge/internal/models"
	"postforge/internal/pipeline"
	"postforge/internal/wizard"
)

type memWizards struct {
	rows    map[uuid.UUID]*models.ContentWizard
	updates int
}

func newMemWizards(ws ...*models.ContentWizard) *memWizards {
	m := &memWizards{rows: map[uuid.UUID]*models.ContentWizard{}}
	for _, w := range ws {
		m.rows[w.ID] = w
	}
	return m
}

func (m *memWizards) Create(w *models.ContentWizard) (*models.ContentWizard, error) {
	w.ID = uuid.New()
	w.Status = models.WizardDraft
	w.CurrentStep = 1
	m.rows[w.ID] = w
	return w, nil
}

func (m *memWizards) FindByID(userID, id uuid.UUID) (*models.ContentWizard, error) {
	w := m.rows[id]
	if w == nil || w.UserID != userID {
		return nil, nil
	}
	return w, nil
}

func (m *memWizards) Update(w *models.ContentWizard) error {
	m.updates++
	m.rows[w.ID] = w
	return nil
}

// stubSteps records which step ran and returns err from it.
type stubSteps struct {
	ran string
	err error
}

func (s *stubSteps) Narratives(_ context.Context, w *models.ContentWizard) error {
	s.ran = "narratives"
	if s.err == nil {
		w.Status = models.WizardNarrativesReady
	}
	return s.err
}

func (s *stubSteps) Content(_ context.Context, w *models.ContentWizard) error {
	s.ran = "content:" + w.SelectedNarrativeID
	return s.err
}

func (s *stubSteps) Images(_ context.Context, _ *models.ContentWizard) error {
	s.ran = "images"
	return s.err
}

func (s *stubSteps) Save(w *models.ContentWizard) (*models.LibraryItem, error) {
	s.ran = "save"
	if s.err != nil {
		return nil, s.err
	}
	return &models.LibraryItem{ID: uuid.New(), UserID: w.UserID, Title: w.Theme}, nil
}

type recordingQueue struct {
	ids []uuid.UUID
	err error
}

func (q *recordingQueue) Enqueue(_ context.Context, id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func ownWizard() *models.ContentWizard {
	return &models.ContentWizard{
		ID:          uuid.New(),
		UserID:      testUser,
		Status:      models.WizardDraft,
		CurrentStep: 1,
		ContentType: "carousel",
		Theme:       "Produtividade",
	}
}

func TestWizardCreate(t *testing.T) {
	store := newMemWizards()
	h := NewWizards(store, &stubSteps{}, nil)

	body := `{"content_type":"carousel","theme":" Produtividade ","number_of_slides":7,
		"negative_terms":[" hack ",""],"image_options":{"method":"html-template"}}`
	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/wizards", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got models.ContentWizard
	decodeBody(t, rec, &got)
	if got.UserID != testUser {
		t.Errorf("user = %v, want %v", got.UserID, testUser)
	}
	if got.Theme != "Produtividade" {
		t.Errorf("theme = %q, want trimmed", got.Theme)
	}
	if len(got.NegativeTerms) != 1 || got.NegativeTerms[0] != "hack" {
		t.Errorf("negative terms = %v, want [hack]", got.NegativeTerms)
	}
	var opts pipeline.ImageOptions
	if err := json.Unmarshal(got.ImageOptions, &opts); err != nil || opts.Method != pipeline.MethodHTML {
		t.Errorf("image options = %s, want html-template method", got.ImageOptions)
	}
}

func TestWizardCreateRejectsInvalid(t *testing.T) {
	h := NewWizards(newMemWizards(), &stubSteps{}, nil)

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/wizards", `{"theme":""}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := errorBody(t, rec); msg != "Theme is required." {
		t.Errorf("error = %q", msg)
	}
}

func TestWizardGetOtherUser(t *testing.T) {
	wz := ownWizard()
	wz.UserID = uuid.New()
	h := NewWizards(newMemWizards(wz), &stubSteps{}, nil)

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestWizardGetBadID(t *testing.T) {
	h := NewWizards(newMemWizards(), &stubSteps{}, nil)

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/", "", "id", "123"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWizardUpdateResetsExtraction(t *testing.T) {
	wz := ownWizard()
	wz.SourceURL = "https://example.com/a"
	wz.ExtractedContent = "old page"
	store := newMemWizards(wz)
	h := NewWizards(store, &stubSteps{}, nil)

	body := `{"theme":"Foco","source_url":"https://example.com/b","selected_narrative_id":"3"}`
	rec := httptest.NewRecorder()
	h.Update(rec, newRequest(http.MethodPut, "/", body, "id", wz.ID.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if wz.ExtractedContent != "" {
		t.Error("expected extracted content to be cleared after the source changed")
	}
	if wz.SelectedNarrativeID != "3" {
		t.Errorf("selected narrative = %q, want 3", wz.SelectedNarrativeID)
	}
	if store.updates != 1 {
		t.Errorf("updates = %d, want 1", store.updates)
	}
}

func TestWizardNarrativesSuccess(t *testing.T) {
	wz := ownWizard()
	steps := &stubSteps{}
	h := NewWizards(newMemWizards(wz), steps, nil)

	rec := httptest.NewRecorder()
	h.Narratives(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res pipeline.Result[models.ContentWizard]
	decodeBody(t, rec, &res)
	if !res.Success || res.Data == nil || res.Data.Status != models.WizardNarrativesReady {
		t.Errorf("unexpected envelope: %+v", res)
	}
}

func TestWizardStepFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"stage error", &pipeline.StageError{Message: "Failed to parse AI response"}, http.StatusUnprocessableEntity},
		{"no narrative", wizard.ErrNoNarrative, http.StatusUnprocessableEntity},
		{"no content", wizard.ErrNoContent, http.StatusUnprocessableEntity},
		{"database", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wz := ownWizard()
			h := NewWizards(newMemWizards(wz), &stubSteps{err: tt.err}, nil)

			rec := httptest.NewRecorder()
			h.Content(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnprocessableEntity {
				var res pipeline.Result[models.ContentWizard]
				decodeBody(t, rec, &res)
				if res.Success || res.Error != tt.err.Error() {
					t.Errorf("envelope = %+v, want error %q", res, tt.err)
				}
			}
		})
	}
}

func TestWizardContentPicksNarrative(t *testing.T) {
	wz := ownWizard()
	steps := &stubSteps{}
	h := NewWizards(newMemWizards(wz), steps, nil)

	rec := httptest.NewRecorder()
	h.Content(rec, newRequest(http.MethodPost, "/", `{"selected_narrative_id":"2"}`, "id", wz.ID.String()))

	if steps.ran != "content:2" {
		t.Errorf("ran %q, want content for narrative 2", steps.ran)
	}
}

func TestWizardImagesRejectsBadOptions(t *testing.T) {
	wz := ownWizard()
	steps := &stubSteps{}
	h := NewWizards(newMemWizards(wz), steps, nil)

	rec := httptest.NewRecorder()
	h.Images(rec, newRequest(http.MethodPost, "/", `{"image_options":{"method":"ai","color":"pink"}}`, "id", wz.ID.String()))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if steps.ran != "" {
		t.Errorf("step %q ran despite invalid options", steps.ran)
	}
}

func TestWizardImagesStoresOptions(t *testing.T) {
	wz := ownWizard()
	steps := &stubSteps{}
	h := NewWizards(newMemWizards(wz), steps, nil)

	rec := httptest.NewRecorder()
	h.Images(rec, newRequest(http.MethodPost, "/", `{"image_options":{"method":"ai"}}`, "id", wz.ID.String()))

	if steps.ran != "images" {
		t.Fatalf("ran %q, want images", steps.ran)
	}
	var opts pipeline.ImageOptions
	if err := json.Unmarshal(wz.ImageOptions, &opts); err != nil {
		t.Fatalf("decode stored options: %v", err)
	}
	if opts.Color != pipeline.ColorBrand {
		t.Errorf("color = %q, want defaulted brand", opts.Color)
	}
}

func TestWizardEnqueue(t *testing.T) {
	wz := ownWizard()
	queue := &recordingQueue{}
	h := NewWizards(newMemWizards(wz), &stubSteps{}, queue)

	rec := httptest.NewRecorder()
	h.Enqueue(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(queue.ids) != 1 || queue.ids[0] != wz.ID {
		t.Errorf("queued %v, want [%v]", queue.ids, wz.ID)
	}
}

func TestWizardEnqueueSavedWizard(t *testing.T) {
	wz := ownWizard()
	itemID := uuid.New()
	wz.LibraryItemID = &itemID
	queue := &recordingQueue{}
	h := NewWizards(newMemWizards(wz), &stubSteps{}, queue)

	rec := httptest.NewRecorder()
	h.Enqueue(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(queue.ids) != 0 {
		t.Errorf("a saved wizard should not be queued, got %v", queue.ids)
	}
}

func TestWizardEnqueueWithoutQueue(t *testing.T) {
	wz := ownWizard()
	h := NewWizards(newMemWizards(wz), &stubSteps{}, nil)

	rec := httptest.NewRecorder()
	h.Enqueue(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestWizardSave(t *testing.T) {
	wz := ownWizard()
	h := NewWizards(newMemWizards(wz), &stubSteps{}, nil)

	rec := httptest.NewRecorder()
	h.Save(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var item models.LibraryItem
	decodeBody(t, rec, &item)
	if item.Title != "Produtividade" {
		t.Errorf("title = %q", item.Title)
	}
}

func TestWizardSaveWithoutContent(t *testing.T) {
	wz := ownWizard()
	h := NewWizards(newMemWizards(wz), &stubSteps{err: wizard.ErrNoContent}, nil)

	rec := httptest.NewRecorder()
	h.Save(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestWizardSaveTwice(t *testing.T) {
	wz := ownWizard()
	h := NewWizards(newMemWizards(wz), &stubSteps{err: wizard.ErrAlreadySaved}, nil)

	rec := httptest.NewRecorder()
	h.Save(rec, newRequest(http.MethodPost, "/", "", "id", wz.ID.String()))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}
