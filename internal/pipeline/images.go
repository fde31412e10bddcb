// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"postforge/internal/slides"
)

// StageImageSet closes a multi-slide image generation.
const StageImageSet = "image_set"

// defaultOverlay darkens photos behind text on templates that use it.
const defaultOverlay = 0.35

type palette struct {
	colors      slides.Colors
	description string
}

var palettes = map[ColorOption]palette{
	ColorBrand: {
		colors:      slides.Colors{Background: "#1E1B4B", Text: "#FFFFFF", Accent: "#6366F1"},
		description: "deep indigo and violet brand tones with luminous highlights",
	},
	ColorNeutral: {
		colors:      slides.Colors{Background: "#F5F5F4", Text: "#1C1917", Accent: "#78716C"},
		description: "soft neutral greys, warm beige and off-white",
	},
	ColorVibrant: {
		colors:      slides.Colors{Background: "#FF3D7F", Text: "#FFFFFF", Accent: "#FFD23F"},
		description: "saturated vibrant pink, sunny yellow and electric blue",
	},
}

// ImageRequest asks for the image of a single slide.
type ImageRequest struct {
	UserID  uuid.UUID    `json:"-"`
	Slide   Slide        `json:"slide"`
	Total   int          `json:"total,omitempty"`
	Options ImageOptions `json:"options"`
}

// SlideImagesRequest asks for images of several slides with one style.
type SlideImagesRequest struct {
	UserID  uuid.UUID    `json:"-"`
	Slides  []Slide      `json:"slides"`
	Options ImageOptions `json:"options"`
}

// ValidateImageOptions checks style options before any provider is
// called and fills in defaults.
func ValidateImageOptions(o *ImageOptions) error {
	switch o.Method {
	case "":
		o.Method = MethodAI
	case MethodAI, MethodHTML:
	default:
		return &InputError{Field: "method", Reason: fmt.Sprintf("unknown image method %q", o.Method)}
	}

	switch o.Color {
	case "":
		o.Color = ColorBrand
	case ColorBrand, ColorNeutral, ColorVibrant:
	case ColorCustom:
		if o.CustomColor == "" {
			return &InputError{Field: "customColor", Reason: "required when color is custom"}
		}
	default:
		return &InputError{Field: "color", Reason: fmt.Sprintf("unknown color option %q", o.Color)}
	}

	for field, v := range map[string]string{
		"customColor":     o.CustomColor,
		"backgroundColor": o.BackgroundColor,
		"textColor":       o.TextColor,
		"accentColor":     o.AccentColor,
	} {
		if v != "" && !slides.ValidHex(v) {
			return &InputError{Field: field, Reason: fmt.Sprintf("%q is not a #RRGGBB color", v)}
		}
	}

	if o.OverlayOpacity != nil && (*o.OverlayOpacity < 0 || *o.OverlayOpacity > 1) {
		return &InputError{Field: "overlayOpacity", Reason: "must be between 0 and 1"}
	}
	if o.Template != "" && !slides.Template(o.Template).Valid() {
		return &InputError{Field: "template", Reason: fmt.Sprintf("unknown template %q", o.Template)}
	}
	switch slides.Format(o.Format) {
	case "", slides.Feed, slides.Thumbnail:
	default:
		return &InputError{Field: "format", Reason: fmt.Sprintf("unknown format %q", o.Format)}
	}
	return nil
}

// paletteDescription phrases the color choice for the image model.
func paletteDescription(o ImageOptions) string {
	if o.Color == ColorCustom {
		return "dominant color " + o.CustomColor + " with harmonious complementary tones"
	}
	if p, ok := palettes[o.Color]; ok {
		return p.description
	}
	return ""
}

// colorsFor resolves the template palette: preset, then custom color,
// then explicit overrides.
func colorsFor(o ImageOptions) slides.Colors {
	c := palettes[ColorBrand].colors
	if p, ok := palettes[o.Color]; ok {
		c = p.colors
	}
	if o.Color == ColorCustom {
		c.Background = o.CustomColor
		c.Text = contrastText(o.CustomColor)
		c.Accent = c.Text
	}
	if o.BackgroundColor != "" {
		c.Background = o.BackgroundColor
	}
	if o.TextColor != "" {
		c.Text = o.TextColor
	}
	if o.AccentColor != "" {
		c.Accent = o.AccentColor
	}
	c.OverlayOpacity = defaultOverlay
	if o.OverlayOpacity != nil {
		c.OverlayOpacity = *o.OverlayOpacity
	}
	return c
}

// contrastText picks black or white text for a #RRGGBB background.
func contrastText(hex string) string {
	rgb, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return "#FFFFFF"
	}
	r, g, b := float64(rgb>>16&0xFF), float64(rgb>>8&0xFF), float64(rgb&0xFF)
	if 0.299*r+0.587*g+0.114*b > 150 {
		return "#111111"
	}
	return "#FFFFFF"
}

// GenerateImagePrompt turns a slide and style options into a prompt for
// the image model.
func (p *Pipeline) GenerateImagePrompt(ctx context.Context, s Slide, opts ImageOptions) Result[ImagePrompt] {
	var prompt *ImagePrompt
	err := p.run(ctx, StageImagePrompt, func() error {
		if err := ValidateImageOptions(&opts); err != nil {
			return err
		}
		var err error
		prompt, err = p.imagePrompt(ctx, s, opts)
		return err
	})
	if err != nil {
		return fail[ImagePrompt](err)
	}
	return ok(*prompt)
}

func (p *Pipeline) imagePrompt(ctx context.Context, s Slide, opts ImageOptions) (*ImagePrompt, error) {
	if strings.TrimSpace(s.Title+s.Content+s.ImagePrompt) == "" {
		return nil, &InputError{Field: "slide", Reason: "has no text to illustrate"}
	}
	system, user, err := imagePromptPrompts(s, opts)
	if err != nil {
		return nil, err
	}
	reply, err := p.generateText(ctx, StageImagePrompt, system, user)
	if err != nil {
		return nil, err
	}

	doc, found := extractJSONObject(reply)
	if !found {
		return nil, invalid(StageImagePrompt, "no JSON object in model reply")
	}
	var out ImagePrompt
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, invalid(StageImagePrompt, "decode: %v", err)
	}
	if strings.TrimSpace(out.Prompt) == "" {
		return nil, invalid(StageImagePrompt, "missing required field %q", "prompt")
	}
	return &out, nil
}

// GenerateImage renders one slide with the selected back-end.
func (p *Pipeline) GenerateImage(ctx context.Context, req ImageRequest) Result[GeneratedImage] {
	var img *GeneratedImage
	err := p.run(ctx, StageImage, func() error {
		if err := ValidateImageOptions(&req.Options); err != nil {
			return err
		}
		var err error
		img, err = p.renderSlide(ctx, req)
		return err
	})
	if err != nil {
		return fail[GeneratedImage](err)
	}
	return ok(*img)
}

// GenerateSlideImages renders every slide. Slides run sequentially unless
// the pipeline was configured with a higher concurrency. Any failure
// fails the whole set.
func (p *Pipeline) GenerateSlideImages(ctx context.Context, req SlideImagesRequest) Result[ImageSet] {
	var set ImageSet
	err := p.run(ctx, StageImageSet, func() error {
		if len(req.Slides) == 0 {
			return &InputError{Field: "slides", Reason: "must not be empty"}
		}
		if err := ValidateImageOptions(&req.Options); err != nil {
			return err
		}

		images := make([]GeneratedImage, len(req.Slides))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.concurrency)
		for i, s := range req.Slides {
			g.Go(func() error {
				img, err := p.renderSlide(gctx, ImageRequest{
					UserID:  req.UserID,
					Slide:   s,
					Total:   len(req.Slides),
					Options: req.Options,
				})
				if err != nil {
					return fmt.Errorf("slide %d: %w", s.Number, err)
				}
				images[i] = *img
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		set.Images = images
		return nil
	})
	if err != nil {
		return fail[ImageSet](err)
	}
	return ok(set)
}

// renderSlide expects validated options.
func (p *Pipeline) renderSlide(ctx context.Context, req ImageRequest) (*GeneratedImage, error) {
	img := &GeneratedImage{
		ID:          p.newID(),
		SlideNumber: req.Slide.Number,
		Method:      req.Options.Method,
		Config:      req.Options,
		CreatedAt:   p.now().UTC(),
	}

	var (
		data        []byte
		contentType string
	)
	switch req.Options.Method {
	case MethodHTML:
		png, err := p.screenshotSlide(ctx, req, img)
		if err != nil {
			return nil, err
		}
		data, contentType = png, "image/png"
		img.ImageURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	default:
		url, err := p.drawSlide(ctx, req, img)
		if err != nil {
			return nil, err
		}
		img.ImageURL = url
		data, contentType, _ = decodeDataURL(url)
	}

	if len(data) > 0 {
		p.store(ctx, req.UserID, req.Slide.Title, img, data, contentType)
	}
	return img, nil
}

// drawSlide runs the AI back-end: prompt, then image model.
func (p *Pipeline) drawSlide(ctx context.Context, req ImageRequest, img *GeneratedImage) (string, error) {
	if p.images == nil {
		return "", ErrMissingAPIKey
	}
	prompt, err := p.imagePrompt(ctx, req.Slide, req.Options)
	if err != nil {
		return "", err
	}
	img.PromptUsed = prompt.Prompt
	img.NegativePrompt = prompt.NegativePrompt

	model := req.Options.Model
	if model == "" {
		model = p.imageModel
	}
	img.Model = model

	full := prompt.Prompt
	if prompt.NegativePrompt != "" {
		full += "\n\nAvoid: " + prompt.NegativePrompt
	}

	var body []byte
	err = p.withRetry(ctx, StageImage, func(ctx context.Context) error {
		out, err := p.images.GenerateImage(ctx, model, full)
		if err != nil {
			return err
		}
		body = out
		return nil
	})
	if err != nil {
		return "", err
	}

	url, found := ExtractImageURL(body)
	if !found {
		return "", invalid(StageImage, "no image found in model response")
	}
	return url, nil
}

// screenshotSlide runs the HTML-template back-end.
func (p *Pipeline) screenshotSlide(ctx context.Context, req ImageRequest, img *GeneratedImage) ([]byte, error) {
	if p.screenshots == nil {
		return nil, ErrMissingAPIKey
	}
	tpl := slides.Template(req.Options.Template)
	if tpl == "" {
		tpl = slides.Minimal
	}
	img.Template = string(tpl)

	format := slides.Format(req.Options.Format)
	html, err := slides.Render(tpl, slides.Slide{
		Number: req.Slide.Number,
		Total:  req.Total,
		Title:  req.Slide.Title,
		Body:   req.Slide.Content,
	}, colorsFor(req.Options), format)
	if err != nil {
		return nil, &InputError{Field: "template", Reason: err.Error()}
	}

	w, h := format.Size()
	var png []byte
	err = p.withRetry(ctx, StageScreenshot, func(ctx context.Context) error {
		out, err := p.screenshots.Capture(ctx, html, w, h)
		if err != nil {
			return err
		}
		png = out
		return nil
	})
	return png, err
}

// store uploads the image when object storage is configured. Upload
// failures keep the inline URL.
func (p *Pipeline) store(ctx context.Context, userID uuid.UUID, title string, img *GeneratedImage, data []byte, contentType string) {
	if p.media == nil {
		return
	}
	start := time.Now()
	url, thumb, err := p.media.PutImage(ctx, img.objectKey(userID, title, extensionFor(contentType)), data, contentType)
	p.observe(ctx, Event{Kind: EventAttempt, Stage: StageUpload, Attempt: 1, Duration: time.Since(start), Err: err})
	if err != nil {
		slog.WarnContext(ctx, "image upload failed, keeping inline image", "image_id", img.ID, "error", err)
		return
	}
	img.ImageURL = url
	img.ThumbnailURL = thumb
}

// decodeDataURL splits a base64 data URL into bytes and media type.
func decodeDataURL(u string) ([]byte, string, bool) {
	rest, found := strings.CutPrefix(u, "data:")
	if !found {
		return nil, "", false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return nil, "", false
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, contentType, true
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}
