// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// ErrMissingAPIKey means the selected provider has no credentials.
// Retrying cannot fix it.
var ErrMissingAPIKey = errors.New("ai: missing API key")

// ErrImageUnsupported is returned when no configured provider can
// generate images.
var ErrImageUnsupported = errors.New("ai: no provider supports image generation")

// IsTransient reports whether err is worth retrying: network failures,
// per-attempt timeouts, rate limits and server-side errors. Client errors
// such as 400/401 and cancellation are permanent.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrMissingAPIKey) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var oe *openai.Error
	if errors.As(err, &oe) {
		return transientStatus(oe.StatusCode)
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return transientStatus(ae.StatusCode)
	}

	var he httpStatusError
	if errors.As(err, &he) {
		return transientStatus(he.HTTPStatus())
	}

	var ne net.Error
	return errors.As(err, &ne)
}

// httpStatusError is implemented by errors from plain HTTP services the
// pipeline calls alongside the SDK clients (the screenshot renderer).
type httpStatusError interface {
	error
	HTTPStatus() int
}

func transientStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusConflict,
		code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	}
	return false
}

// StatusCode extracts the HTTP status from a provider error, or 0.
func StatusCode(err error) int {
	var oe *openai.Error
	if errors.As(err, &oe) {
		return oe.StatusCode
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var he httpStatusError
	if errors.As(err, &he) {
		return he.HTTPStatus()
	}
	return 0
}
