// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	openAIBaseURL     = "https://api.openai.com/v1"
)

// openAIProvider implements Provider and ImageGenerator for any
// OpenAI-compatible chat completions API. OpenRouter and OpenAI differ
// only in base URL and headers.
type openAIProvider struct {
	name   string
	config ProviderConfig
	client openai.Client
}

// newOpenAICompatible creates a provider talking to baseURL unless the
// config overrides it. SDK retries are disabled; the pipeline owns retry.
func newOpenAICompatible(name string, cfg ProviderConfig, baseURL string) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTextTimeout
	}
	if cfg.ImageTimeout == 0 {
		cfg.ImageTimeout = defaultImageTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	for k, v := range cfg.Headers {
		if v != "" {
			opts = append(opts, option.WithHeader(k, v))
		}
	}

	return &openAIProvider{
		name:   name,
		config: cfg,
		client: openai.NewClient(opts...),
	}
}

func (p *openAIProvider) Name() string { return p.name }

// Generate sends a chat completion request and returns the assistant's
// response text.
func (p *openAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}, option.WithRequestTimeout(p.config.Timeout))
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", p.name)
	}

	return resp.Choices[0].Message.Content, nil
}

// imageChatRequest asks a chat model for image output. The SDK's typed
// params do not carry the "image" modality, so the body is sent raw.
type imageChatRequest struct {
	Model      string             `json:"model"`
	Messages   []imageChatMessage `json:"messages"`
	Modalities []string           `json:"modalities"`
}

type imageChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateImage calls an image-capable chat model with image and text
// modalities and returns the raw response body. Models answer in several
// shapes, so URL extraction is left to the caller.
func (p *openAIProvider) GenerateImage(ctx context.Context, model, prompt string) ([]byte, error) {
	if model == "" {
		model = p.config.ImageModel
	}
	if model == "" {
		return nil, fmt.Errorf("%s: no image model configured", p.name)
	}

	body := imageChatRequest{
		Model:      model,
		Messages:   []imageChatMessage{{Role: "user", Content: prompt}},
		Modalities: []string{"image", "text"},
	}

	var raw []byte
	err := p.client.Post(ctx, "chat/completions", body, &raw,
		option.WithRequestTimeout(p.config.ImageTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s image: %w", p.name, err)
	}
	return raw, nil
}
