// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging produces downscaled JPEG variants of generated slide
// images. Variants wider than the source are skipped to avoid upscaling.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration
)

// Variant describes a single output size.
type Variant struct {
	Name    string // e.g., "thumb"
	Width   int    // Target width in pixels
	Quality int    // JPEG quality 1-100
}

// Thumb is the preview shown in the library grid and the wizard.
var Thumb = Variant{Name: "thumb", Width: 320, Quality: 75}

// ProcessedImage holds one generated variant ready for upload.
type ProcessedImage struct {
	Name        string
	Width       int
	Height      int
	Data        []byte
	ContentType string // Always "image/jpeg"
}

// Resize decodes original (PNG, JPEG or WebP) and encodes it as a JPEG
// no wider than v.Width, keeping the aspect ratio.
func Resize(original []byte, v Variant) (*ProcessedImage, error) {
	src, format, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("imaging: empty %s image", format)
	}
	if width > v.Width {
		height = height * v.Width / width
		width = v.Width
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	quality := v.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode %s: %w", v.Name, err)
	}

	return &ProcessedImage{
		Name:        v.Name,
		Width:       width,
		Height:      height,
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
	}, nil
}
