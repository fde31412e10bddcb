// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ---------- Helpers ----------

// newTestServer creates an httptest.Server that responds with the given status
// code and body bytes. The server is closed when the test ends.
func newTestServer(t *testing.T, statusCode int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newStalledServer returns a server that never answers. Its handlers are
// released before the server closes, so cleanup cannot hang on them.
func newStalledServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv
}

// openAISuccessBody builds a JSON body matching the chat completions
// response format with a single choice containing the given text.
func openAISuccessBody(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": text},
		}},
	})
	return b
}

// claudeSuccessBody builds a JSON body matching the Anthropic Messages
// response format with a single text content block.
func claudeSuccessBody(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"id":            "msg_01",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-test",
		"content":       []map[string]any{{"type": "text", "text": text}},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 3, "output_tokens": 2},
	})
	return b
}

const apiErrorBody = `{"error":{"message":"boom","type":"server_error"}}`

// =====================================================================
// OpenAI-compatible provider (OpenRouter / OpenAI)
// =====================================================================

func TestOpenAICompatibleGenerate_Success(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, openAISuccessBody("Olá"))

	p := newOpenAICompatible("openrouter", ProviderConfig{
		APIKey: "test-key", Model: "google/gemini-2.5-flash", BaseURL: srv.URL,
	}, openRouterBaseURL)

	got, err := p.Generate(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Olá" {
		t.Errorf("got %q, want %q", got, "Olá")
	}
}

func TestOpenAICompatibleGenerate_VerifiesRequest(t *testing.T) {
	var gotPath, gotAuth, gotReferer, gotTitle string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write(openAISuccessBody("ok"))
	}))
	defer srv.Close()

	p := newOpenAICompatible("openrouter", ProviderConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.5-flash",
		BaseURL: srv.URL,
		Headers: map[string]string{"HTTP-Referer": "https://postforge.app", "X-Title": "Postforge"},
	}, openRouterBaseURL)

	if _, err := p.Generate(context.Background(), "be brief", "hello"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotAuth != "Bearer sk-or-test" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
	if gotReferer != "https://postforge.app" || gotTitle != "Postforge" {
		t.Errorf("attribution headers: referer=%q title=%q", gotReferer, gotTitle)
	}
	if gotBody["model"] != "google/gemini-2.5-flash" {
		t.Errorf("model: got %v", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: got %d, want 2", len(msgs))
	}
}

func TestOpenAICompatibleGenerate_HTTPErrors(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newTestServer(t, tt.status, []byte(apiErrorBody))
			p := newOpenAICompatible("openai", ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL}, openAIBaseURL)

			_, err := p.Generate(context.Background(), "s", "u")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient: got %v, want %v (err=%v)", got, tt.transient, err)
			}
			if got := StatusCode(err); got != tt.status {
				t.Errorf("StatusCode: got %d, want %d", got, tt.status)
			}
		})
	}
}

func TestOpenAICompatibleGenerate_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{not json`))
	p := newOpenAICompatible("openai", ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL}, openAIBaseURL)

	if _, err := p.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestOpenAICompatibleGenerate_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	p := newOpenAICompatible("openai", ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL}, openAIBaseURL)

	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no choices error, got %v", err)
	}
}

func TestOpenAICompatibleGenerate_Unreachable(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, nil)
	url := srv.URL
	srv.Close()

	p := newOpenAICompatible("openai", ProviderConfig{APIKey: "k", Model: "m", BaseURL: url}, openAIBaseURL)
	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !IsTransient(err) {
		t.Errorf("network errors should be transient, got %v", err)
	}
}

func TestOpenAICompatibleGenerate_CancelledContext(t *testing.T) {
	srv := newStalledServer(t)

	p := newOpenAICompatible("openai", ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL}, openAIBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := p.Generate(ctx, "s", "u")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if IsTransient(err) {
		t.Error("cancellation must not be retried")
	}
}

func TestOpenAICompatibleGenerate_RequestTimeoutIsTransient(t *testing.T) {
	srv := newStalledServer(t)

	p := newOpenAICompatible("openai", ProviderConfig{
		APIKey: "k", Model: "m", BaseURL: srv.URL, Timeout: 30 * time.Millisecond,
	}, openAIBaseURL)

	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTransient(err) {
		t.Errorf("per-attempt timeout should be transient, got %v", err)
	}
}

func TestOpenAICompatibleGenerateImage(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"images":[{"image_url":{"url":"https://img.example/1.png"}}]}}]}`))
	}))
	defer srv.Close()

	p := newOpenAICompatible("openrouter", ProviderConfig{
		APIKey: "k", BaseURL: srv.URL, ImageModel: "google/gemini-2.5-flash-image-preview",
	}, openRouterBaseURL)

	raw, err := p.GenerateImage(context.Background(), "", "um farol ao amanhecer")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if !strings.Contains(string(raw), "https://img.example/1.png") {
		t.Errorf("raw body not returned: %s", raw)
	}

	if gotBody["model"] != "google/gemini-2.5-flash-image-preview" {
		t.Errorf("model: got %v", gotBody["model"])
	}
	mods, _ := gotBody["modalities"].([]any)
	if len(mods) != 2 || mods[0] != "image" || mods[1] != "text" {
		t.Errorf("modalities: got %v", gotBody["modalities"])
	}
}

func TestOpenAICompatibleGenerateImage_NoModel(t *testing.T) {
	p := newOpenAICompatible("openai", ProviderConfig{APIKey: "k"}, openAIBaseURL)
	if _, err := p.GenerateImage(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error without an image model")
	}
}

// =====================================================================
// Claude Provider Tests
// =====================================================================

func TestClaudeGenerate_Success(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotVersion = r.Header.Get("Anthropic-Version")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write(claudeSuccessBody("Olá do Claude"))
	}))
	defer srv.Close()

	p := newClaude(ProviderConfig{APIKey: "claude-key", Model: "claude-sonnet-4-5", BaseURL: srv.URL})

	got, err := p.Generate(context.Background(), "be brief", "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Olá do Claude" {
		t.Errorf("got %q", got)
	}
	if gotPath != "/v1/messages" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotKey != "claude-key" || gotVersion == "" {
		t.Errorf("headers: key=%q version=%q", gotKey, gotVersion)
	}
	if gotBody["model"] != "claude-sonnet-4-5" {
		t.Errorf("model: got %v", gotBody["model"])
	}
}

func TestClaudeGenerate_HTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable,
		[]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	p := newClaude(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})

	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("503 should be transient, got %v", err)
	}
}

func TestClaudeGenerate_NoTextContent(t *testing.T) {
	body, _ := json.Marshal(map[string]any{
		"id": "msg_01", "type": "message", "role": "assistant", "model": "m",
		"content": []map[string]any{}, "stop_reason": "end_turn",
		"usage": map[string]any{"input_tokens": 1, "output_tokens": 0},
	})
	srv := newTestServer(t, http.StatusOK, body)
	p := newClaude(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})

	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "no text content") {
		t.Fatalf("expected no text content error, got %v", err)
	}
}

// =====================================================================
// Moderation
// =====================================================================

func TestOpenAIModerator(t *testing.T) {
	t.Run("flagged", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"modr-1","model":"omni-moderation-latest","results":[{"flagged":true,
				"categories":{"hate":false,"violence/graphic":true,"self_harm":true}}]}`))
		}))
		defer srv.Close()

		m := newOpenAIModerator("k", srv.URL)
		res, err := m.CheckSafety(context.Background(), "algo violento")
		if err != nil {
			t.Fatalf("CheckSafety: %v", err)
		}
		if gotPath != "/moderations" {
			t.Errorf("path: got %q", gotPath)
		}
		if res.Safe {
			t.Fatal("expected unsafe result")
		}
		want := []string{"self harm", "violence (graphic)"}
		if strings.Join(res.Categories, ",") != strings.Join(want, ",") {
			t.Errorf("categories: got %v, want %v", res.Categories, want)
		}
	})

	t.Run("clean", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK,
			[]byte(`{"id":"modr-2","model":"omni-moderation-latest","results":[{"flagged":false,"categories":{}}]}`))
		m := newOpenAIModerator("k", srv.URL)
		res, err := m.CheckSafety(context.Background(), "produtividade")
		if err != nil || !res.Safe {
			t.Errorf("expected safe, got (%+v, %v)", res, err)
		}
	})
}

func TestIsTransientSentinels(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
	if IsTransient(context.Canceled) {
		t.Error("cancellation is not transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Error("deadline exceeded is transient")
	}
	if IsTransient(errors.New("plain")) {
		t.Error("unknown errors are not transient")
	}
}

type statusErr int

func (e statusErr) Error() string   { return http.StatusText(int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

func TestIsTransient_HTTPStatusError(t *testing.T) {
	if !IsTransient(fmt.Errorf("screenshot: %w", statusErr(http.StatusBadGateway))) {
		t.Error("502 from a plain HTTP service should be transient")
	}
	if IsTransient(statusErr(http.StatusForbidden)) {
		t.Error("403 should be permanent")
	}
	if got := StatusCode(statusErr(http.StatusTeapot)); got != http.StatusTeapot {
		t.Errorf("StatusCode = %d", got)
	}
}
