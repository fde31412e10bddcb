// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns free text into lowercase ASCII slugs.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, trims it and strips combining marks, so
// "Visionário" becomes "visionario".
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate creates a URL-friendly slug from s. Accents are folded and
// every run of other characters becomes one hyphen.
// Example: "Rotina de Produção 2026!" → "rotina-de-producao-2026"
func Generate(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range Fold(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			hyphen = false
			continue
		}
		hyphen = true
	}
	return b.String()
}

// Truncate returns Generate(s) cut to at most max bytes, on a word
// boundary when one exists.
func Truncate(s string, max int) string {
	out := Generate(s)
	if max <= 0 || len(out) <= max {
		return out
	}
	out = out[:max]
	if i := strings.LastIndexByte(out, '-'); i > 0 {
		out = out[:i]
	}
	return strings.TrimSuffix(out, "-")
}
