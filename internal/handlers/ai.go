// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"postforge/internal/pipeline"
	"postforge/internal/wizard"
)

// Generator is the stateless pipeline surface.
type Generator interface {
	GenerateNarratives(ctx context.Context, in pipeline.NarrativeInput) pipeline.Result[pipeline.NarrativeSet]
	GenerateContent(ctx context.Context, in pipeline.ContentInput) pipeline.Result[pipeline.GeneratedContent]
	GenerateImagePrompt(ctx context.Context, s pipeline.Slide, opts pipeline.ImageOptions) pipeline.Result[pipeline.ImagePrompt]
	GenerateImage(ctx context.Context, req pipeline.ImageRequest) pipeline.Result[pipeline.GeneratedImage]
}

// Providers exposes the AI provider registry.
type Providers interface {
	ActiveName() string
	Available() []string
	SetActive(name string) error
	SupportsImageGeneration() bool
}

// AI groups the stateless pipeline endpoints and the provider settings.
type AI struct {
	gen       Generator
	web       wizard.Extractor
	providers Providers
}

// NewAI creates the AI handler group. web may be nil.
func NewAI(gen Generator, web wizard.Extractor, providers Providers) *AI {
	return &AI{gen: gen, web: web, providers: providers}
}

type narrativesRequest struct {
	pipeline.NarrativeInput
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Narratives generates four narrative options. When sourceUrl is given
// and no extracted content was sent, the page text is fetched first.
func (h *AI) Narratives(w http.ResponseWriter, r *http.Request) {
	var req narrativesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in := req.NarrativeInput
	in.UserID = currentUser(r)

	if req.SourceURL != "" && in.ExtractedContent == "" && h.web != nil {
		page, err := h.web.Extract(r.Context(), req.SourceURL)
		if err != nil {
			slog.Warn("source extraction failed", "url", req.SourceURL, "error", err)
		} else {
			in.ExtractedContent = page.Text
		}
	}

	writeResult(w, h.gen.GenerateNarratives(r.Context(), in))
}

// Content generates content for a narrative.
func (h *AI) Content(w http.ResponseWriter, r *http.Request) {
	var in pipeline.ContentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.UserID = currentUser(r)
	writeResult(w, h.gen.GenerateContent(r.Context(), in))
}

type imagePromptRequest struct {
	Slide   pipeline.Slide        `json:"slide"`
	Options pipeline.ImageOptions `json:"options"`
}

// ImagePrompt turns a slide into an image prompt without drawing it.
func (h *AI) ImagePrompt(w http.ResponseWriter, r *http.Request) {
	var req imagePromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeResult(w, h.gen.GenerateImagePrompt(r.Context(), req.Slide, req.Options))
}

// Image renders the image of one slide.
func (h *AI) Image(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = currentUser(r)
	writeResult(w, h.gen.GenerateImage(r.Context(), req))
}

type providersResponse struct {
	Active          string   `json:"active"`
	Available       []string `json:"available"`
	ImageGeneration bool     `json:"image_generation"`
}

// Settings reports the active provider and the configured ones.
func (h *AI) Settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

type setProviderRequest struct {
	Provider string `json:"provider"`
}

// SetActive switches the active text provider at runtime.
func (h *AI) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setProviderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Provider)
	if name == "" {
		writeError(w, http.StatusBadRequest, "No provider specified.")
		return
	}

	if err := h.providers.SetActive(name); err != nil {
		slog.Warn("failed to switch AI provider", "provider", name, "error", err)
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot switch to %q: provider not available (no API key configured).", name))
		return
	}

	slog.Info("ai provider switched", "provider", name)
	writeJSON(w, http.StatusOK, h.status())
}

func (h *AI) status() providersResponse {
	return providersResponse{
		Active:          h.providers.ActiveName(),
		Available:       h.providers.Available(),
		ImageGeneration: h.providers.SupportsImageGeneration(),
	}
}
