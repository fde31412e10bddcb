// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package wizard drives a stored content wizard through the pipeline. It
// maps the wizard row onto pipeline inputs, writes the results back and
// syncs a finished run into the library. The HTTP handlers and the
// background worker share it so both paths persist the same shapes.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"postforge/internal/models"
	"postforge/internal/pipeline"
	"postforge/internal/store"
	"postforge/internal/webextract"
)

var (
	// ErrNoNarrative means content was requested before a narrative was
	// picked, or the picked id is not among the generated options.
	ErrNoNarrative = errors.New("no narrative selected")

	// ErrNoContent means images or a save were requested before content
	// was generated.
	ErrNoContent = errors.New("no generated content")

	// ErrAlreadySaved means the wizard already has a library item.
	ErrAlreadySaved = store.ErrAlreadySaved
)

// Generator is the subset of the pipeline a wizard run needs.
type Generator interface {
	GenerateNarratives(ctx context.Context, in pipeline.NarrativeInput) pipeline.Result[pipeline.NarrativeSet]
	GenerateContent(ctx context.Context, in pipeline.ContentInput) pipeline.Result[pipeline.GeneratedContent]
	GenerateSlideImages(ctx context.Context, req pipeline.SlideImagesRequest) pipeline.Result[pipeline.ImageSet]
}

// Wizards persists wizard rows.
type Wizards interface {
	Update(w *models.ContentWizard) error
}

// Library stores finished runs.
type Library interface {
	SaveGenerated(w *models.ContentWizard, title string, content, metadata json.RawMessage, mediaURLs []string) (*models.LibraryItem, error)
}

// Extractor fetches the readable text of a source URL.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*webextract.Page, error)
}

// Service runs wizard steps.
type Service struct {
	gen     Generator
	wizards Wizards
	library Library
	web     Extractor
}

// NewService wires a Service. web may be nil, in which case source URLs
// are ignored.
func NewService(gen Generator, wizards Wizards, library Library, web Extractor) *Service {
	return &Service{gen: gen, wizards: wizards, library: library, web: web}
}

// Narratives generates the narrative options for w and stores them. A
// source URL is fetched first when no extracted content is present yet;
// a fetch failure is logged and generation goes on without it.
func (s *Service) Narratives(ctx context.Context, w *models.ContentWizard) error {
	if w.SourceURL != "" && w.ExtractedContent == "" && s.web != nil {
		page, err := s.web.Extract(ctx, w.SourceURL)
		if err != nil {
			slog.Warn("source extraction failed", "wizard_id", w.ID, "url", w.SourceURL, "error", err)
		} else {
			w.ExtractedContent = page.Text
		}
	}

	res := s.gen.GenerateNarratives(ctx, pipeline.NarrativeInput{
		UserID:           w.UserID,
		Theme:            w.Theme,
		Objective:        w.Objective,
		Audience:         w.TargetAudience,
		ContentType:      pipeline.ContentType(w.ContentType),
		ExtractedContent: w.ExtractedContent,
		Research:         w.Research,
		RAGContext:       w.RAGContext,
	})
	if err := res.Err(); err != nil {
		return s.fail(w, err)
	}

	raw, err := json.Marshal(res.Data.Narratives)
	if err != nil {
		return fmt.Errorf("encode narratives: %w", err)
	}
	w.Narratives = raw
	w.SelectedNarrativeID = ""
	w.GeneratedContent = nil
	w.GeneratedImages = nil
	w.Status = models.WizardNarrativesReady
	w.CurrentStep = 2
	w.ErrorMessage = ""
	return s.wizards.Update(w)
}

// NarrativeOptions decodes the stored narrative options of w.
func NarrativeOptions(w *models.ContentWizard) ([]pipeline.NarrativeOption, error) {
	if !w.HasNarratives() {
		return nil, nil
	}
	var opts []pipeline.NarrativeOption
	if err := json.Unmarshal(w.Narratives, &opts); err != nil {
		return nil, fmt.Errorf("decode narratives: %w", err)
	}
	return opts, nil
}

// Content generates content for the selected narrative of w.
func (s *Service) Content(ctx context.Context, w *models.ContentWizard) error {
	opts, err := NarrativeOptions(w)
	if err != nil {
		return err
	}
	set := pipeline.NarrativeSet{Narratives: opts}
	narrative, found := set.Find(w.SelectedNarrativeID)
	if w.SelectedNarrativeID == "" || !found {
		return ErrNoNarrative
	}

	slides := w.NumberOfSlides
	if slides <= 0 {
		slides = models.DefaultNumberOfSlides
	}
	res := s.gen.GenerateContent(ctx, pipeline.ContentInput{
		UserID:         w.UserID,
		Narrative:      narrative,
		ContentType:    pipeline.ContentType(w.ContentType),
		NumberOfSlides: slides,
		CTA:            w.CTA,
		NegativeTerms:  w.NegativeTerms,
		RAGContext:     w.RAGContext,
		Theme:          w.Theme,
		Audience:       w.TargetAudience,
	})
	if err := res.Err(); err != nil {
		return s.fail(w, err)
	}

	raw, err := json.Marshal(res.Data)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	w.GeneratedContent = raw
	w.GeneratedImages = nil
	w.Status = models.WizardContentReady
	w.CurrentStep = 3
	w.ErrorMessage = ""
	return s.wizards.Update(w)
}

// GeneratedContent decodes the stored generated content of w.
func GeneratedContent(w *models.ContentWizard) (*pipeline.GeneratedContent, error) {
	if !w.HasContent() {
		return nil, ErrNoContent
	}
	var c pipeline.GeneratedContent
	if err := json.Unmarshal(w.GeneratedContent, &c); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return &c, nil
}

// ImageOptions decodes the stored image options of w. A wizard without
// options gets the defaults.
func ImageOptions(w *models.ContentWizard) (pipeline.ImageOptions, error) {
	var o pipeline.ImageOptions
	if w.WantsImages() {
		if err := json.Unmarshal(w.ImageOptions, &o); err != nil {
			return o, fmt.Errorf("decode image options: %w", err)
		}
	}
	return o, nil
}

// Images renders every slide of the generated content of w.
func (s *Service) Images(ctx context.Context, w *models.ContentWizard) error {
	content, err := GeneratedContent(w)
	if err != nil {
		return err
	}
	opts, err := ImageOptions(w)
	if err != nil {
		return err
	}

	res := s.gen.GenerateSlideImages(ctx, pipeline.SlideImagesRequest{
		UserID:  w.UserID,
		Slides:  content.Slides(),
		Options: opts,
	})
	if err := res.Err(); err != nil {
		return s.fail(w, err)
	}

	raw, err := json.Marshal(res.Data.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	w.GeneratedImages = raw
	w.Status = models.WizardImagesReady
	w.CurrentStep = 4
	w.ErrorMessage = ""
	return s.wizards.Update(w)
}

// Save syncs a wizard with generated content into the library. The
// library row gets the content as a JSON string, the narrative and
// settings as metadata and the image URLs in slide order. A wizard is
// saved once.
func (s *Service) Save(w *models.ContentWizard) (*models.LibraryItem, error) {
	if w.LibraryItemID != nil {
		return nil, ErrAlreadySaved
	}
	content, err := GeneratedContent(w)
	if err != nil {
		return nil, err
	}

	var images []pipeline.GeneratedImage
	if len(w.GeneratedImages) > 0 {
		if err := json.Unmarshal(w.GeneratedImages, &images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.ImageURL)
	}

	meta, err := json.Marshal(map[string]any{
		"narrative_id":  w.SelectedNarrativeID,
		"theme":         w.Theme,
		"objective":     w.Objective,
		"audience":      w.TargetAudience,
		"cta":           w.CTA,
		"image_options": w.ImageOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	item, err := s.library.SaveGenerated(w, title(w, content), w.GeneratedContent, meta, urls)
	if err != nil {
		return nil, err
	}
	w.LibraryItemID = &item.ID
	w.Status = models.WizardCompleted
	return item, nil
}

// Advance runs the next background step of w: narratives when none
// exist, otherwise content for the selected narrative, images when
// configured, and the library sync. A saved wizard has nothing left.
func (s *Service) Advance(ctx context.Context, w *models.ContentWizard) error {
	if w.LibraryItemID != nil {
		slog.Info("wizard already saved, skipping", "wizard_id", w.ID, "library_item_id", *w.LibraryItemID)
		return nil
	}
	if !w.HasNarratives() {
		return s.Narratives(ctx, w)
	}
	if !w.HasContent() {
		if err := s.Content(ctx, w); err != nil {
			return err
		}
	}
	if w.WantsImages() && len(w.GeneratedImages) == 0 {
		if err := s.Images(ctx, w); err != nil {
			return err
		}
	}
	_, err := s.Save(w)
	return err
}

// fail records a pipeline failure on the wizard and returns it.
func (s *Service) fail(w *models.ContentWizard, err error) error {
	w.ErrorMessage = err.Error()
	if uerr := s.wizards.Update(w); uerr != nil {
		slog.Error("record wizard error", "wizard_id", w.ID, "error", uerr)
	}
	return err
}

func title(w *models.ContentWizard, c *pipeline.GeneratedContent) string {
	if t := strings.TrimSpace(c.Title()); t != "" {
		return t
	}
	if opts, err := NarrativeOptions(w); err == nil {
		set := pipeline.NarrativeSet{Narratives: opts}
		if n, ok := set.Find(w.SelectedNarrativeID); ok && n.Title != "" {
			return n.Title
		}
	}
	return w.Theme
}
