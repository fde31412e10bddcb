// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slides

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders slide bodies. Raw HTML in model output is dropped, so the
// result can be trusted as template.HTML.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Typographer, // smart quotes and dashes
	),
)

// toHTML converts a Markdown slide body into safe HTML.
func toHTML(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
