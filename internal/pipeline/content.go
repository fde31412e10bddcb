// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// GenerateContent writes the post for the selected narrative.
func (p *Pipeline) GenerateContent(ctx context.Context, in ContentInput) Result[GeneratedContent] {
	var content *GeneratedContent
	err := p.run(ctx, StageContent, func() error {
		if !in.ContentType.Valid() {
			return &InputError{Field: "contentType", Reason: "unknown content type " + string(in.ContentType)}
		}
		if strings.TrimSpace(in.Narrative.Title) == "" {
			return &InputError{Field: "narrative", Reason: "a narrative must be selected"}
		}

		system, user, err := contentPrompts(in, p.variables(ctx, in.UserID))
		if err != nil {
			return err
		}
		reply, err := p.generateText(ctx, StageContent, system, user)
		if err != nil {
			return err
		}
		content, err = parseContent(in.ContentType, reply)
		return err
	})
	if err != nil {
		return fail[GeneratedContent](err)
	}
	return ok(*content)
}

// contentParser maps one response shape. matched is false when the shape
// does not apply, so the next parser is tried; once a parser matches its
// error is final.
type contentParser struct {
	name  string
	parse func(doc gjson.Result, raw string) (c *GeneratedContent, matched bool, err error)
}

// contentParsers lists the accepted shapes per type in priority order.
// The first parser that matches wins.
var contentParsers = map[ContentType][]contentParser{
	Carousel: {
		{name: "carousel-cover", parse: parseCarouselCover},
		{name: "carousel-legacy", parse: parseCarouselLegacy},
	},
	Text:  {{name: "text", parse: parseText}},
	Image: {{name: "image", parse: parseImage}},
	Video: {
		{name: "video-structured", parse: parseVideoStructured},
		{name: "video-script", parse: parseVideoScript},
	},
}

func parseContent(t ContentType, reply string) (*GeneratedContent, error) {
	raw, found := extractJSONObject(reply)
	if !found {
		return nil, invalid(StageContent, "no JSON object in model reply")
	}
	doc := gjson.Parse(raw)

	for _, parser := range contentParsers[t] {
		c, matched, err := parser.parse(doc, raw)
		if !matched {
			continue
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	switch t {
	case Carousel:
		return nil, missingField("slides")
	case Text:
		return nil, missingField("content")
	case Image:
		return nil, missingField("imagePrompt")
	default:
		return nil, missingField("script")
	}
}

func missingField(name string) error {
	return invalid(StageContent, "missing required field %q", name)
}

// parseCarouselCover handles the cover shape: capa plus numbered slides.
// The cover becomes slide 0.
func parseCarouselCover(doc gjson.Result, raw string) (*GeneratedContent, bool, error) {
	if !doc.Get("capa").Exists() {
		return nil, false, nil
	}
	if err := validateSchema(StageContent, carouselV43Schema, raw); err != nil {
		return nil, true, err
	}

	var v struct {
		Capa struct {
			Titulo    string `json:"titulo"`
			Subtitulo string `json:"subtitulo"`
		} `json:"capa"`
		Slides []struct {
			Numero         int    `json:"numero"`
			Tipo           string `json:"tipo"`
			Titulo         string `json:"titulo"`
			Corpo          string `json:"corpo"`
			ConexaoProximo string `json:"conexao_proximo"`
		} `json:"slides"`
		Legenda      string `json:"legenda"`
		Throughline  string `json:"throughline"`
		ValorCentral string `json:"valor_central"`
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, true, invalid(StageContent, "decode carousel: %v", err)
	}

	slides := make([]Slide, 0, len(v.Slides)+1)
	slides = append(slides, Slide{Number: 0, Kind: "capa", Title: v.Capa.Titulo, Content: v.Capa.Subtitulo})
	for i, s := range v.Slides {
		n := s.Numero
		if n <= 0 {
			n = i + 1
		}
		slides = append(slides, Slide{
			Number:     n,
			Kind:       s.Tipo,
			Title:      s.Titulo,
			Content:    s.Corpo,
			Connection: s.ConexaoProximo,
		})
	}

	return &GeneratedContent{
		Type: Carousel,
		Carousel: &CarouselContent{
			Format:      FormatCover,
			Slides:      slides,
			Caption:     v.Legenda,
			Hashtags:    stringArray(doc.Get("hashtags")),
			Throughline: v.Throughline,
			CoreValue:   v.ValorCentral,
		},
	}, true, nil
}

// parseCarouselLegacy handles {slides:[{title,content,imagePrompt}]}.
func parseCarouselLegacy(doc gjson.Result, _ string) (*GeneratedContent, bool, error) {
	arr := doc.Get("slides")
	if !arr.IsArray() {
		return nil, false, nil
	}

	items := arr.Array()
	if len(items) == 0 {
		return nil, true, invalid(StageContent, "carousel has no slides")
	}
	slides := make([]Slide, 0, len(items))
	for i, item := range items {
		title, content := item.Get("title"), item.Get("content")
		if title.Type != gjson.String {
			return nil, true, invalid(StageContent, "slide %d: missing required field %q", i+1, "title")
		}
		if content.Type != gjson.String {
			return nil, true, invalid(StageContent, "slide %d: missing required field %q", i+1, "content")
		}
		slides = append(slides, Slide{
			Number:      i + 1,
			Title:       title.String(),
			Content:     content.String(),
			ImagePrompt: item.Get("imagePrompt").String(),
		})
	}

	return &GeneratedContent{
		Type: Carousel,
		Carousel: &CarouselContent{
			Format:   FormatLegacy,
			Slides:   slides,
			Caption:  doc.Get("caption").String(),
			Hashtags: stringArray(doc.Get("hashtags")),
			CTA:      doc.Get("cta").String(),
		},
	}, true, nil
}

func parseText(doc gjson.Result, _ string) (*GeneratedContent, bool, error) {
	content := doc.Get("content")
	if content.Type != gjson.String || strings.TrimSpace(content.Str) == "" {
		return nil, false, nil
	}
	return &GeneratedContent{
		Type: Text,
		Text: &TextContent{
			Content:  content.Str,
			Hashtags: stringArray(doc.Get("hashtags")),
			CTA:      doc.Get("cta").String(),
		},
	}, true, nil
}

func parseImage(doc gjson.Result, _ string) (*GeneratedContent, bool, error) {
	prompt := doc.Get("imagePrompt")
	if prompt.Type != gjson.String || strings.TrimSpace(prompt.Str) == "" {
		return nil, false, nil
	}
	return &GeneratedContent{
		Type: Image,
		Image: &ImageContent{
			ImagePrompt: prompt.Str,
			Caption:     doc.Get("caption").String(),
			Hashtags:    stringArray(doc.Get("hashtags")),
		},
	}, true, nil
}

// parseVideoStructured handles {meta, roteiro, thumbnail}. The CTA is
// lifted from roteiro.cta.texto.
func parseVideoStructured(doc gjson.Result, _ string) (*GeneratedContent, bool, error) {
	roteiro := doc.Get("roteiro")
	if !roteiro.IsObject() {
		return nil, false, nil
	}
	v := &VideoContent{
		Roteiro: json.RawMessage(roteiro.Raw),
		CTA:     roteiro.Get("cta.texto").String(),
	}
	if meta := doc.Get("meta"); meta.Exists() {
		v.Meta = json.RawMessage(meta.Raw)
	}
	if thumb := doc.Get("thumbnail"); thumb.Exists() {
		v.Thumbnail = json.RawMessage(thumb.Raw)
	}
	return &GeneratedContent{Type: Video, Video: v}, true, nil
}

// parseVideoScript handles a flat script. An array script is kept as its
// JSON encoding.
func parseVideoScript(doc gjson.Result, _ string) (*GeneratedContent, bool, error) {
	script := doc.Get("script")
	var text string
	switch {
	case script.Type == gjson.String:
		text = script.Str
	case script.IsArray():
		text = doc.Get("script|@ugly").Raw
	default:
		return nil, false, nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, true, invalid(StageContent, "video script is empty")
	}
	return &GeneratedContent{
		Type:  Video,
		Video: &VideoContent{Script: text, CTA: doc.Get("cta").String()},
	}, true, nil
}

// stringArray returns the string elements of a JSON array; a single
// "#a #b" string is split on whitespace.
func stringArray(r gjson.Result) []string {
	if r.Type == gjson.String {
		return strings.Fields(r.Str)
	}
	if !r.IsArray() {
		return nil
	}
	var out []string
	for _, item := range r.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
