// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestOpenRouterLive tests the OpenRouter provider against the real API.
// Skipped if OPENROUTER_API_KEY is not set.
func TestOpenRouterLive(t *testing.T) {
	key := os.Getenv("OPENROUTER_API_KEY")
	if key == "" {
		t.Skip("OPENROUTER_API_KEY not set")
	}

	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "google/gemini-2.5-flash"
	}

	reg := NewRegistry("openrouter", map[string]ProviderConfig{
		"openrouter": {APIKey: key, Model: model},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := reg.Generate(ctx, "Responda em exatamente uma frase curta.", "Quanto é 2+2?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result == "" {
		t.Fatal("Generate returned empty string")
	}

	t.Logf("OpenRouter response: %s", result)
}

// TestClaudeLive tests the Claude provider against the real API.
// Skipped if ANTHROPIC_API_KEY is not set.
func TestClaudeLive(t *testing.T) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		t.Skip("ANTHROPIC_API_KEY not set")
	}

	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	reg := NewRegistry("claude", map[string]ProviderConfig{
		"claude": {APIKey: key, Model: model},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := reg.Generate(ctx, "Reply in exactly one short sentence.", "What is 2+2?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result == "" {
		t.Fatal("Generate returned empty string")
	}

	t.Logf("Claude response: %s", result)
}
