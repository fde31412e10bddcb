// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"postforge/internal/ai"
)

// ErrMissingAPIKey means no provider is configured for the requested
// call. It fails fast and is never retried.
var ErrMissingAPIKey = ai.ErrMissingAPIKey

// ValidationError reports a model response whose shape does not match
// what the stage expects. Retrying an identical prompt is unlikely to fix
// it, so it is never retried.
type ValidationError struct {
	Stage  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid response: %s", e.Stage, e.Reason)
}

func invalid(stage, format string, args ...any) error {
	return &ValidationError{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InputError reports caller input the pipeline refuses before calling any
// provider (bad colors, unknown content type).
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FlaggedError means the moderation check rejected the user's prompt.
type FlaggedError struct {
	Categories []string
}

func (e *FlaggedError) Error() string {
	if len(e.Categories) == 0 {
		return "prompt rejected by content moderation"
	}
	return "prompt rejected by content moderation: " + strings.Join(e.Categories, ", ")
}

// StageError carries a failed Result back into error-returning code.
type StageError struct {
	Message string

	cause error
}

func (e *StageError) Error() string { return e.Message }

func (e *StageError) Unwrap() error { return e.cause }

// Permanent reports failures that no retry can fix: missing
// configuration, rejected input or prompts, invalid responses and
// provider client errors such as a revoked key.
func Permanent(err error) bool {
	var (
		ie *InputError
		fe *FlaggedError
	)
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ai.ErrImageUnsupported) ||
		IsValidation(err) || errors.As(err, &ie) || errors.As(err, &fe) {
		return true
	}
	code := ai.StatusCode(err)
	return code >= 400 && code < 500 && !ai.IsTransient(err)
}

// retryable reports whether a failed attempt should be tried again.
func retryable(err error) bool {
	return !Permanent(err) && ai.IsTransient(err)
}
