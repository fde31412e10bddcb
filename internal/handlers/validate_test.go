// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"testing"

	"postforge/internal/models"
	"postforge/internal/pipeline"
)

func TestValidateWizard(t *testing.T) {
	tests := []struct {
		name      string
		in        wizardInput
		wantError bool
	}{
		{"valid", wizardInput{Theme: "Produtividade", ContentType: "carousel", NumberOfSlides: 7}, false},
		{"theme only", wizardInput{Theme: "Produtividade"}, false},
		{"empty theme", wizardInput{Theme: "   "}, true},
		{"unknown type", wizardInput{Theme: "t", ContentType: "reel"}, true},
		{"theme too long", wizardInput{Theme: strings.Repeat("a", 501)}, true},
		{"objective too long", wizardInput{Theme: "t", Objective: strings.Repeat("a", 1001)}, true},
		{"audience too long", wizardInput{Theme: "t", TargetAudience: strings.Repeat("a", 501)}, true},
		{"cta too long", wizardInput{Theme: "t", CTA: strings.Repeat("a", 301)}, true},
		{"research too long", wizardInput{Theme: "t", Research: strings.Repeat("a", 50_001)}, true},
		{"too few slides", wizardInput{Theme: "t", NumberOfSlides: 2}, true},
		{"too many slides", wizardInput{Theme: "t", NumberOfSlides: 21}, true},
		{"too many terms", wizardInput{Theme: "t", NegativeTerms: make([]string, 51)}, true},
		{"ftp source", wizardInput{Theme: "t", SourceURL: "ftp://example.com/x"}, true},
		{"https source", wizardInput{Theme: "t", SourceURL: "https://example.com/x"}, false},
		{"bad image method", wizardInput{Theme: "t", ImageOptions: &pipeline.ImageOptions{Method: "paint"}}, true},
		{"html images", wizardInput{Theme: "t", ImageOptions: &pipeline.ImageOptions{Method: pipeline.MethodHTML}}, false},
		{"multibyte within limit", wizardInput{Theme: strings.Repeat("ã", 500)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			result := validateWizard(&in)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		typ       models.LibraryItemType
		status    models.LibraryItemStatus
		wantError bool
	}{
		{"valid", "Post", models.LibraryItemText, models.LibraryStatusReady, false},
		{"empty status allowed", "Post", models.LibraryItemCarousel, "", false},
		{"empty title", " ", models.LibraryItemText, "", true},
		{"title too long", strings.Repeat("a", 301), models.LibraryItemText, "", true},
		{"unknown type", "Post", "story", "", true},
		{"unknown status", "Post", models.LibraryItemText, "lost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateItem(tt.title, tt.typ, tt.status)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		color     string
		wantError bool
	}{
		{"valid", "Dicas", "#1A2b3C", false},
		{"no color", "Dicas", "", false},
		{"empty name", "", "#000000", true},
		{"name too long", strings.Repeat("a", 101), "", true},
		{"short hex", "Dicas", "#fff", true},
		{"named color", "Dicas", "red", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateLabel(tt.label, tt.color)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}
