// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"encoding/base64"
	"strings"

	"github.com/tidwall/gjson"
)

// imageURLParser finds an image URL in one response shape.
type imageURLParser struct {
	name  string
	parse func(resp gjson.Result) (string, bool)
}

// imageURLParsers are tried in order; the first match wins. Image models
// behind the chat endpoint disagree on where they put the picture.
var imageURLParsers = []imageURLParser{
	{name: "content-array", parse: fromContentArray},
	{name: "message-images", parse: fromMessageImages},
	{name: "string-content", parse: fromStringContent},
	{name: "tool-calls", parse: fromToolCalls},
	{name: "root-legacy", parse: fromRootLegacy},
}

// ExtractImageURL returns the image URL (or data URL) carried by an image
// model response. ok is false when no known shape matches; malformed
// input is treated the same way.
func ExtractImageURL(body []byte) (url string, ok bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	resp := gjson.ParseBytes(body)
	for _, p := range imageURLParsers {
		if u, ok := p.parse(resp); ok {
			return u, true
		}
	}
	return "", false
}

func message(resp gjson.Result) gjson.Result {
	return resp.Get("choices.0.message")
}

// fromContentArray handles content parts: image_url.url, url, or a
// type:"image" part carrying the picture inline.
func fromContentArray(resp gjson.Result) (string, bool) {
	content := message(resp).Get("content")
	if !content.IsArray() {
		return "", false
	}
	for _, part := range content.Array() {
		if u, ok := imageField(part, "image_url.url", "image_url", "url"); ok {
			return u, true
		}
		if part.Get("type").String() == "image" {
			if u, ok := imageField(part, "image", "source.data", "data"); ok {
				return u, true
			}
			if u, ok := base64Field(part, "b64_json", "source.data"); ok {
				return u, true
			}
		}
	}
	return "", false
}

// fromMessageImages handles OpenRouter's message.images list.
func fromMessageImages(resp gjson.Result) (string, bool) {
	images := message(resp).Get("images")
	if !images.IsArray() {
		return "", false
	}
	for _, img := range images.Array() {
		if img.Type == gjson.String && looksLikeImageURL(img.Str) {
			return img.Str, true
		}
		if u, ok := imageField(img, "image_url.url", "url"); ok {
			return u, true
		}
	}
	return "", false
}

// fromStringContent handles a plain string reply: a bare URL, a data URL
// or a JSON document embedding one.
func fromStringContent(resp gjson.Result) (string, bool) {
	content := message(resp).Get("content")
	if content.Type != gjson.String {
		return "", false
	}
	text := strings.TrimSpace(content.Str)
	if looksLikeImageURL(text) && !strings.ContainsAny(text, " \n") {
		return text, true
	}
	if doc, found := extractJSONObject(text); found {
		return imageField(gjson.Parse(doc), "url", "image", "images.0.url", "images.0")
	}
	return "", false
}

// fromToolCalls handles models that return the image as a function call
// whose arguments are a JSON string.
func fromToolCalls(resp gjson.Result) (string, bool) {
	calls := message(resp).Get("tool_calls")
	if !calls.IsArray() {
		return "", false
	}
	for _, call := range calls.Array() {
		args := call.Get("function.arguments")
		if args.Type != gjson.String || !gjson.Valid(args.Str) {
			continue
		}
		doc := gjson.Parse(args.Str)
		if u, ok := imageField(doc, "url", "image_url", "image", "images.0.url"); ok {
			return u, true
		}
		if u, ok := base64Field(doc, "b64_json"); ok {
			return u, true
		}
	}
	return "", false
}

// fromRootLegacy handles images-API style bodies.
func fromRootLegacy(resp gjson.Result) (string, bool) {
	if u, ok := imageField(resp, "data.0.url", "url", "image"); ok {
		return u, true
	}
	return base64Field(resp, "data.0.b64_json", "b64_json", "image")
}

// imageField returns the first path holding a URL or data URL.
func imageField(r gjson.Result, paths ...string) (string, bool) {
	for _, path := range paths {
		v := r.Get(path)
		if v.Type == gjson.String && looksLikeImageURL(strings.TrimSpace(v.Str)) {
			return strings.TrimSpace(v.Str), true
		}
	}
	return "", false
}

// base64Field returns the first path holding raw base64 as a PNG data URL.
func base64Field(r gjson.Result, paths ...string) (string, bool) {
	for _, path := range paths {
		v := r.Get(path)
		if v.Type != gjson.String {
			continue
		}
		b64 := strings.TrimSpace(v.Str)
		if b64 == "" || looksLikeImageURL(b64) {
			continue
		}
		if _, err := base64.StdEncoding.DecodeString(b64); err != nil {
			continue
		}
		return "data:image/png;base64," + b64, true
	}
	return "", false
}

func looksLikeImageURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "data:image/")
}
