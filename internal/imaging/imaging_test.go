// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestResize_Downscales(t *testing.T) {
	out, err := Resize(pngOf(t, 1080, 1350), Thumb)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if out.Width != 320 || out.Height != 400 {
		t.Errorf("size = %dx%d, want 320x400", out.Width, out.Height)
	}
	if out.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q", out.ContentType)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 400 {
		t.Errorf("encoded size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestResize_NoUpscale(t *testing.T) {
	out, err := Resize(pngOf(t, 200, 100), Thumb)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 200 || out.Height != 100 {
		t.Errorf("size = %dx%d, want original 200x100", out.Width, out.Height)
	}
}

func TestResize_InvalidInput(t *testing.T) {
	if _, err := Resize([]byte("not an image"), Thumb); err == nil {
		t.Fatal("expected decode error")
	}
}
