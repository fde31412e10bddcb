// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"postforge/internal/slug"
)

// Angle is one of the four rhetorical stances a narrative takes.
type Angle string

const (
	AngleHeretic    Angle = "herege"
	AngleVisionary  Angle = "visionario"
	AngleTranslator Angle = "tradutor"
	AngleWitness    Angle = "testemunha"
)

// Angles is the set every narrative generation must cover exactly once.
var Angles = []Angle{AngleHeretic, AngleVisionary, AngleTranslator, AngleWitness}

// ContentType selects the shape of generated content.
type ContentType string

const (
	Carousel ContentType = "carousel"
	Text     ContentType = "text"
	Image    ContentType = "image"
	Video    ContentType = "video"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case Carousel, Text, Image, Video:
		return true
	}
	return false
}

// flexID accepts a narrative id written as a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// NarrativeOption is one candidate direction for a post.
type NarrativeOption struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Angle               Angle    `json:"angle"`
	Hook                string   `json:"hook,omitempty"`
	CoreBelief          string   `json:"core_belief,omitempty"`
	StatusQuoChallenged string   `json:"status_quo_challenged,omitempty"`
	Keywords            []string `json:"keywords,omitempty"`
	Tone                string   `json:"tone,omitempty"`
}

// NarrativeSet is the output of a narrative generation.
type NarrativeSet struct {
	Narratives []NarrativeOption `json:"narratives"`
}

// Find returns the narrative with the given id.
func (s *NarrativeSet) Find(id string) (NarrativeOption, bool) {
	for _, n := range s.Narratives {
		if n.ID == id {
			return n, true
		}
	}
	return NarrativeOption{}, false
}

// NarrativeInput is the context a narrative generation starts from.
type NarrativeInput struct {
	UserID           uuid.UUID   `json:"-"`
	Theme            string      `json:"theme"`
	Objective        string      `json:"objective"`
	Audience         string      `json:"audience"`
	ContentType      ContentType `json:"contentType"`
	ExtractedContent string      `json:"extractedContent,omitempty"`
	Research         string      `json:"research,omitempty"`
	RAGContext       string      `json:"ragContext,omitempty"`
}

// ContentInput carries the selected narrative and per-type parameters.
type ContentInput struct {
	UserID         uuid.UUID       `json:"-"`
	Narrative      NarrativeOption `json:"narrative"`
	ContentType    ContentType     `json:"contentType"`
	NumberOfSlides int             `json:"numberOfSlides,omitempty"`
	CTA            string          `json:"cta,omitempty"`
	NegativeTerms  []string        `json:"negativeTerms,omitempty"`
	RAGContext     string          `json:"ragContext,omitempty"`
	Theme          string          `json:"theme,omitempty"`
	Audience       string          `json:"audience,omitempty"`
}

// Slide is one carousel page. Number 0 is the cover when the response
// used the cover shape.
type Slide struct {
	Number      int    `json:"number"`
	Kind        string `json:"kind,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt,omitempty"`
	Connection  string `json:"connection,omitempty"`
}

// Carousel shape markers.
const (
	FormatCover  = "v4.3"
	FormatLegacy = "legacy"
)

type CarouselContent struct {
	Format      string   `json:"format"`
	Slides      []Slide  `json:"slides"`
	Caption     string   `json:"caption,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	CTA         string   `json:"cta,omitempty"`
	Throughline string   `json:"throughline,omitempty"`
	CoreValue   string   `json:"coreValue,omitempty"`
}

type TextContent struct {
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags,omitempty"`
	CTA      string   `json:"cta,omitempty"`
}

type ImageContent struct {
	ImagePrompt string   `json:"imagePrompt"`
	Caption     string   `json:"caption,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
}

// VideoContent holds either a flat Script or the structured
// Meta/Roteiro/Thumbnail sections, kept as raw JSON.
type VideoContent struct {
	Script    string          `json:"script,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	Roteiro   json.RawMessage `json:"roteiro,omitempty"`
	Thumbnail json.RawMessage `json:"thumbnail,omitempty"`
	CTA       string          `json:"cta,omitempty"`
}

// GeneratedContent is a tagged union keyed by Type; exactly the variant
// matching Type is set.
type GeneratedContent struct {
	Type     ContentType      `json:"type"`
	Carousel *CarouselContent `json:"carousel,omitempty"`
	Text     *TextContent     `json:"text,omitempty"`
	Image    *ImageContent    `json:"image,omitempty"`
	Video    *VideoContent    `json:"video,omitempty"`
}

// Title picks a library title for the content.
func (c *GeneratedContent) Title() string {
	if c.Carousel != nil && len(c.Carousel.Slides) > 0 {
		return c.Carousel.Slides[0].Title
	}
	return ""
}

// Slides returns the slides images can be rendered for. Non-carousel
// content yields a single synthetic slide.
func (c *GeneratedContent) Slides() []Slide {
	switch {
	case c.Carousel != nil:
		return c.Carousel.Slides
	case c.Image != nil:
		return []Slide{{Number: 1, Content: c.Image.Caption, ImagePrompt: c.Image.ImagePrompt}}
	case c.Text != nil:
		return []Slide{{Number: 1, Content: c.Text.Content}}
	case c.Video != nil:
		return []Slide{{Number: 1, Title: "Thumbnail", Content: c.Video.CTA}}
	}
	return nil
}

// ImageMethod selects the image back-end.
type ImageMethod string

const (
	MethodAI   ImageMethod = "ai"
	MethodHTML ImageMethod = "html-template"
)

// ColorOption selects a palette.
type ColorOption string

const (
	ColorBrand   ColorOption = "brand"
	ColorNeutral ColorOption = "neutral"
	ColorVibrant ColorOption = "vibrant"
	ColorCustom  ColorOption = "custom"
)

// ImageOptions configures image generation for a slide or a whole set.
type ImageOptions struct {
	Method          ImageMethod `json:"method"`
	Color           ColorOption `json:"color,omitempty"`
	CustomColor     string      `json:"customColor,omitempty"`
	VisualStyle     string      `json:"visualStyle,omitempty"`
	Composition     string      `json:"composition,omitempty"`
	Mood            string      `json:"mood,omitempty"`
	Model           string      `json:"model,omitempty"`
	Template        string      `json:"template,omitempty"`
	Format          string      `json:"format,omitempty"` // "feed" or "thumbnail"
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	TextColor       string      `json:"textColor,omitempty"`
	AccentColor     string      `json:"accentColor,omitempty"`
	OverlayOpacity  *float64    `json:"overlayOpacity,omitempty"`
}

// ImagePrompt is the text-to-image instruction derived from a slide.
type ImagePrompt struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
}

// GeneratedImage is one rendered slide image.
type GeneratedImage struct {
	ID             string       `json:"id"`
	SlideNumber    int          `json:"slideNumber"`
	Method         ImageMethod  `json:"method"`
	Model          string       `json:"model,omitempty"`
	Template       string       `json:"template,omitempty"`
	ImageURL       string       `json:"imageUrl"`
	ThumbnailURL   string       `json:"thumbnailUrl,omitempty"`
	PromptUsed     string       `json:"promptUsed,omitempty"`
	NegativePrompt string       `json:"negativePrompt,omitempty"`
	Config         ImageOptions `json:"config"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// ImageSet is the output of a multi-slide image generation.
type ImageSet struct {
	Images []GeneratedImage `json:"images"`
}

// objectKey is the storage key for an image. A slide title adds a
// readable suffix.
func (g *GeneratedImage) objectKey(userID uuid.UUID, title, ext string) string {
	name := g.ID + "-slide-" + strconv.Itoa(g.SlideNumber)
	if s := slug.Truncate(title, maxKeySlug); s != "" {
		name += "-" + s
	}
	return "generated/" + userID.String() + "/" + name + ext
}

const maxKeySlug = 48
