// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
)

// ImageGenerator is an optional interface that AI providers can implement
// to support image generation. Claude is text-only.
type ImageGenerator interface {
	// GenerateImage asks model (or the provider's default image model) to
	// draw prompt and returns the raw response body.
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, error)
}

// GenerateImage routes an image request to the active provider when it
// can draw, and otherwise to OpenRouter, which fronts the image models.
func (r *Registry) GenerateImage(ctx context.Context, model, prompt string) ([]byte, error) {
	ig, err := r.imageProvider()
	if err != nil {
		return nil, err
	}
	return ig.GenerateImage(ctx, model, prompt)
}

// SupportsImageGeneration returns true if some configured provider can
// generate images.
func (r *Registry) SupportsImageGeneration() bool {
	_, err := r.imageProvider()
	return err == nil
}

func (r *Registry) imageProvider() (ImageGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range []string{r.active, "openrouter", "openai"} {
		if ig, ok := r.providers[name].(ImageGenerator); ok {
			return ig, nil
		}
	}
	if len(r.providers) == 0 {
		return nil, ErrMissingAPIKey
	}
	return nil, ErrImageUnsupported
}
