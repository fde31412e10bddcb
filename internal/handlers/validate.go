// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"postforge/internal/models"
	"postforge/internal/pipeline"
)

// Validation limits for user-supplied fields.
const (
	maxThemeLen     = 500
	maxObjectiveLen = 1_000
	maxAudienceLen  = 500
	maxCTALen       = 300
	maxContextLen   = 50_000
	maxNegativeTerm = 50
	minSlides       = 3
	maxSlides       = 20
	maxTitleLen     = 300
	maxNameLen      = 100
)

var colorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// wizardInput is the editable part of a wizard.
type wizardInput struct {
	ContentType         string                 `json:"content_type"`
	Theme               string                 `json:"theme"`
	Objective           string                 `json:"objective"`
	TargetAudience      string                 `json:"target_audience"`
	NumberOfSlides      int                    `json:"number_of_slides"`
	CTA                 string                 `json:"cta"`
	NegativeTerms       []string               `json:"negative_terms"`
	SourceURL           string                 `json:"source_url"`
	Research            string                 `json:"research"`
	RAGContext          string                 `json:"rag_context"`
	SelectedNarrativeID *string                `json:"selected_narrative_id"`
	ImageOptions        *pipeline.ImageOptions `json:"image_options"`
}

// validateWizard checks wizard inputs and returns the first error found.
func validateWizard(in *wizardInput) string {
	in.Theme = strings.TrimSpace(in.Theme)
	if in.Theme == "" {
		return "Theme is required."
	}
	if in.ContentType != "" && !pipeline.ContentType(in.ContentType).Valid() {
		return fmt.Sprintf("Unknown content type %q.", in.ContentType)
	}
	if tooLong(in.Theme, maxThemeLen) {
		return "Theme is too long (max 500 characters)."
	}
	if tooLong(in.Objective, maxObjectiveLen) {
		return "Objective is too long (max 1,000 characters)."
	}
	if tooLong(in.TargetAudience, maxAudienceLen) {
		return "Target audience is too long (max 500 characters)."
	}
	if tooLong(in.CTA, maxCTALen) {
		return "CTA is too long (max 300 characters)."
	}
	if tooLong(in.Research, maxContextLen) || tooLong(in.RAGContext, maxContextLen) {
		return "Context is too long (max 50,000 characters)."
	}
	if in.NumberOfSlides != 0 && (in.NumberOfSlides < minSlides || in.NumberOfSlides > maxSlides) {
		return fmt.Sprintf("Number of slides must be between %d and %d.", minSlides, maxSlides)
	}
	if len(in.NegativeTerms) > maxNegativeTerm {
		return "Too many negative terms (max 50)."
	}
	if in.SourceURL != "" {
		u, err := url.Parse(in.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "Source URL must be an http(s) URL."
		}
	}
	if in.ImageOptions != nil {
		if err := pipeline.ValidateImageOptions(in.ImageOptions); err != nil {
			return err.Error()
		}
	}
	return ""
}

// validateItem checks a library item payload.
func validateItem(title string, typ models.LibraryItemType, status models.LibraryItemStatus) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required."
	}
	if tooLong(title, maxTitleLen) {
		return "Title is too long (max 300 characters)."
	}
	if !typ.Valid() {
		return fmt.Sprintf("Unknown item type %q.", typ)
	}
	if status != "" && !status.Valid() {
		return fmt.Sprintf("Unknown item status %q.", status)
	}
	return ""
}

// validateLabel checks the name and color of a category or tag.
func validateLabel(name, color string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if tooLong(name, maxNameLen) {
		return "Name is too long (max 100 characters)."
	}
	if color != "" && !colorRe.MatchString(color) {
		return "Color must be a #RRGGBB hex value."
	}
	return ""
}

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}
