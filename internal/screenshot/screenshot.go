// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package screenshot rasterizes HTML documents through a hosted
// screenshot service. The document travels inline as a data URL in the
// query string, so no page has to be published first.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrMissingAccessKey means the service credentials are not configured.
var ErrMissingAccessKey = errors.New("screenshot: missing access key")

// DefaultTimeout bounds a single capture.
const DefaultTimeout = 60 * time.Second

// maxImageSize caps the response body read into memory.
const maxImageSize = 20 << 20

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("screenshot: service returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status so callers can classify the failure.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Client calls the screenshot service.
type Client struct {
	endpoint   string
	accessKey  string
	httpClient *http.Client
}

// New creates a client. A zero timeout selects DefaultTimeout.
func New(endpoint, accessKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Capture renders html at width×height and returns the PNG bytes.
func (c *Client) Capture(ctx context.Context, html string, width, height int) ([]byte, error) {
	if c.accessKey == "" {
		return nil, ErrMissingAccessKey
	}

	q := url.Values{}
	q.Set("access_key", c.accessKey)
	q.Set("url", "data:text/html,"+url.PathEscape(html))
	q.Set("viewport_width", strconv.Itoa(width))
	q.Set("viewport_height", strconv.Itoa(height))
	q.Set("device_scale_factor", "1")
	q.Set("format", "png")
	q.Set("full_page", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screenshot: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(msg)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("screenshot: read body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("screenshot: empty response")
	}
	return data, nil
}
