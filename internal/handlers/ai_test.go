// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"postforge/internal/pipeline"
	"postforge/internal/webextract"
)

type fakeGenerator struct {
	narrativeIn pipeline.NarrativeInput
	contentIn   pipeline.ContentInput
	imageIn     pipeline.ImageRequest
	fail        string
}

func (f *fakeGenerator) GenerateNarratives(_ context.Context, in pipeline.NarrativeInput) pipeline.Result[pipeline.NarrativeSet] {
	f.narrativeIn = in
	if f.fail != "" {
		return pipeline.Result[pipeline.NarrativeSet]{Error: f.fail}
	}
	set := pipeline.NarrativeSet{Narratives: []pipeline.NarrativeOption{{ID: "1", Title: "Mito", Angle: pipeline.Angles[0]}}}
	return pipeline.Result[pipeline.NarrativeSet]{Success: true, Data: &set}
}

func (f *fakeGenerator) GenerateContent(_ context.Context, in pipeline.ContentInput) pipeline.Result[pipeline.GeneratedContent] {
	f.contentIn = in
	c := pipeline.GeneratedContent{Type: in.ContentType}
	return pipeline.Result[pipeline.GeneratedContent]{Success: true, Data: &c}
}

func (f *fakeGenerator) GenerateImagePrompt(_ context.Context, s pipeline.Slide, _ pipeline.ImageOptions) pipeline.Result[pipeline.ImagePrompt] {
	return pipeline.Result[pipeline.ImagePrompt]{Success: true, Data: &pipeline.ImagePrompt{Prompt: "editorial photo for " + s.Title}}
}

func (f *fakeGenerator) GenerateImage(_ context.Context, req pipeline.ImageRequest) pipeline.Result[pipeline.GeneratedImage] {
	f.imageIn = req
	img := pipeline.GeneratedImage{ImageURL: "https://cdn.example.com/1.png"}
	return pipeline.Result[pipeline.GeneratedImage]{Success: true, Data: &img}
}

type stubExtractor struct {
	url string
	err error
}

func (s *stubExtractor) Extract(_ context.Context, rawURL string) (*webextract.Page, error) {
	s.url = rawURL
	if s.err != nil {
		return nil, s.err
	}
	return &webextract.Page{URL: rawURL, Text: "texto do artigo"}, nil
}

type fakeProviders struct {
	active string
}

func (f *fakeProviders) ActiveName() string { return f.active }
func (f *fakeProviders) Available() []string { return []string{"openai", "claude"} }
func (f *fakeProviders) SupportsImageGeneration() bool { return f.active == "openai" }
func (f *fakeProviders) SetActive(name string) error {
	if name != "openai" && name != "claude" {
		return errors.New("unknown provider")
	}
	f.active = name
	return nil
}

func TestAINarrativesExtractsSource(t *testing.T) {
	gen, web := &fakeGenerator{}, &stubExtractor{}
	h := NewAI(gen, web, &fakeProviders{active: "openai"})

	rec := httptest.NewRecorder()
	h.Narratives(rec, newRequest(http.MethodPost, "/api/ai/narratives",
		`{"theme":"Foco","contentType":"carousel","sourceUrl":"https://example.com/a"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if web.url != "https://example.com/a" {
		t.Errorf("extracted %q", web.url)
	}
	if gen.narrativeIn.ExtractedContent != "texto do artigo" {
		t.Errorf("extracted content = %q", gen.narrativeIn.ExtractedContent)
	}
	if gen.narrativeIn.UserID != testUser {
		t.Errorf("user = %v, want session user", gen.narrativeIn.UserID)
	}
}

func TestAINarrativesKeepsGivenContent(t *testing.T) {
	gen, web := &fakeGenerator{}, &stubExtractor{}
	h := NewAI(gen, web, &fakeProviders{})

	rec := httptest.NewRecorder()
	h.Narratives(rec, newRequest(http.MethodPost, "/",
		`{"theme":"Foco","extractedContent":"colado","sourceUrl":"https://example.com/a"}`))

	if web.url != "" {
		t.Error("source should not be fetched when content was sent")
	}
	if gen.narrativeIn.ExtractedContent != "colado" {
		t.Errorf("extracted content = %q", gen.narrativeIn.ExtractedContent)
	}
}

func TestAINarrativesExtractionFailure(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewAI(gen, &stubExtractor{err: errors.New("timeout")}, &fakeProviders{})

	rec := httptest.NewRecorder()
	h.Narratives(rec, newRequest(http.MethodPost, "/", `{"theme":"Foco","sourceUrl":"https://example.com/a"}`))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without extracted content", rec.Code)
	}
}

func TestAINarrativesStageFailure(t *testing.T) {
	h := NewAI(&fakeGenerator{fail: "Theme is required"}, nil, &fakeProviders{})

	rec := httptest.NewRecorder()
	h.Narratives(rec, newRequest(http.MethodPost, "/", `{"theme":""}`))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var res pipeline.Result[pipeline.NarrativeSet]
	decodeBody(t, rec, &res)
	if res.Success || res.Error != "Theme is required" {
		t.Errorf("envelope = %+v", res)
	}
}

func TestAIContentAndImage(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewAI(gen, nil, &fakeProviders{})

	rec := httptest.NewRecorder()
	h.Content(rec, newRequest(http.MethodPost, "/",
		`{"narrative":{"id":"1","title":"Mito","angle":"herege"},"contentType":"text"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("content status = %d: %s", rec.Code, rec.Body.String())
	}
	if gen.contentIn.Narrative.Title != "Mito" || gen.contentIn.UserID != testUser {
		t.Errorf("content input = %+v", gen.contentIn)
	}

	rec = httptest.NewRecorder()
	h.Image(rec, newRequest(http.MethodPost, "/", `{"slide":{"number":1,"title":"Um"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("image status = %d: %s", rec.Code, rec.Body.String())
	}
	if gen.imageIn.UserID != testUser {
		t.Errorf("image user = %v", gen.imageIn.UserID)
	}
}

func TestAIImagePrompt(t *testing.T) {
	h := NewAI(&fakeGenerator{}, nil, &fakeProviders{})

	rec := httptest.NewRecorder()
	h.ImagePrompt(rec, newRequest(http.MethodPost, "/", `{"slide":{"number":2,"title":"Foco"},"options":{"method":"ai"}}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res pipeline.Result[pipeline.ImagePrompt]
	decodeBody(t, rec, &res)
	if res.Data == nil || res.Data.Prompt != "editorial photo for Foco" {
		t.Errorf("envelope = %+v", res)
	}
}

func TestAIContentBadBody(t *testing.T) {
	h := NewAI(&fakeGenerator{}, nil, &fakeProviders{})

	rec := httptest.NewRecorder()
	h.Content(rec, newRequest(http.MethodPost, "/", `{"narrative":`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAISettingsAndSwitch(t *testing.T) {
	providers := &fakeProviders{active: "openai"}
	h := NewAI(&fakeGenerator{}, nil, providers)

	rec := httptest.NewRecorder()
	h.SetActive(rec, newRequest(http.MethodPut, "/", `{"provider":" claude "}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got providersResponse
	decodeBody(t, rec, &got)
	if got.Active != "claude" || got.ImageGeneration {
		t.Errorf("settings = %+v", got)
	}

	rec = httptest.NewRecorder()
	h.SetActive(rec, newRequest(http.MethodPut, "/", `{"provider":"gemini"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown provider status = %d, want 400", rec.Code)
	}
	if providers.active != "claude" {
		t.Errorf("active = %q after failed switch", providers.active)
	}

	rec = httptest.NewRecorder()
	h.SetActive(rec, newRequest(http.MethodPut, "/", `{"provider":""}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty provider status = %d, want 400", rec.Code)
	}
}
