// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slides renders carousel slides into standalone HTML documents
// that the screenshot service rasterizes. Output is deterministic: the
// same slide, colors and format always produce the same bytes.
package slides

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Template names one of the built-in slide layouts.
type Template string

const (
	Minimal  Template = "minimal"
	Gradient Template = "gradient"
	Quote    Template = "quote"
	Split    Template = "split"
)

// Templates lists the built-in layouts in display order.
var Templates = []Template{Minimal, Gradient, Quote, Split}

// Valid reports whether t is a built-in layout.
func (t Template) Valid() bool {
	for _, known := range Templates {
		if t == known {
			return true
		}
	}
	return false
}

// Format selects the output canvas.
type Format string

const (
	Feed      Format = "feed"      // Instagram portrait post
	Thumbnail Format = "thumbnail" // 16:9 video thumbnail
)

// Size returns the pixel dimensions of the canvas. Unknown formats fall
// back to the feed size.
func (f Format) Size() (width, height int) {
	if f == Thumbnail {
		return 1280, 720
	}
	return 1080, 1350
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidHex reports whether s is a six-digit hex color such as "#A1B2C3".
func ValidHex(s string) bool {
	return hexColor.MatchString(s)
}

// Colors is the palette applied to a template. All colors must be
// six-digit hex values and OverlayOpacity must be within [0,1].
type Colors struct {
	Background     string
	Text           string
	Accent         string
	OverlayOpacity float64
}

// Validate checks the palette before it is interpolated into CSS.
func (c Colors) Validate() error {
	for name, v := range map[string]string{
		"background": c.Background, "text": c.Text, "accent": c.Accent,
	} {
		if !ValidHex(v) {
			return fmt.Errorf("slides: invalid %s color %q", name, v)
		}
	}
	if c.OverlayOpacity < 0 || c.OverlayOpacity > 1 {
		return fmt.Errorf("slides: overlay opacity %v out of range [0,1]", c.OverlayOpacity)
	}
	return nil
}

// Slide is the text content of one rendered slide. Body is Markdown.
type Slide struct {
	Number int
	Total  int
	Title  string
	Body   string
}

// view is the data handed to the templates.
type view struct {
	Number     int
	Total      int
	Title      string
	Body       template.HTML
	Width      int
	Height     int
	Background template.CSS
	Text       template.CSS
	Accent     template.CSS
	Overlay    template.CSS
}

// Render produces the HTML document for one slide.
func Render(tpl Template, s Slide, c Colors, f Format) (string, error) {
	if !tpl.Valid() {
		return "", fmt.Errorf("slides: unknown template %q", tpl)
	}
	if err := c.Validate(); err != nil {
		return "", err
	}

	body, err := toHTML(s.Body)
	if err != nil {
		return "", fmt.Errorf("slides: rendering body: %w", err)
	}

	w, h := f.Size()
	v := view{
		Number:     s.Number,
		Total:      s.Total,
		Title:      s.Title,
		Body:       body,
		Width:      w,
		Height:     h,
		Background: template.CSS(c.Background),
		Text:       template.CSS(c.Text),
		Accent:     template.CSS(c.Accent),
		Overlay:    template.CSS(fmt.Sprintf("%.2f", c.OverlayOpacity)),
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(tpl)+".html", v); err != nil {
		return "", fmt.Errorf("slides: executing %s: %w", tpl, err)
	}
	return buf.String(), nil
}
