package render

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestHalfBlocks_Dimensions(t *testing.T) {
	cells, err := HalfBlocks(solid(120, 80, color.White), 30, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cells.Cols != 30 || cells.Rows != 10 || len(cells.Lines) != 10 {
		t.Fatalf("expected 30x10 cells, got %dx%d (%d lines)", cells.Cols, cells.Rows, len(cells.Lines))
	}
	for i, line := range cells.Lines {
		if n := strings.Count(line, "▀"); n != 30 {
			t.Errorf("line %d: expected 30 half-blocks, got %d", i, n)
		}
		if !strings.HasSuffix(line, "\x1b[0m") {
			t.Errorf("line %d: expected trailing reset", i)
		}
	}
}

func TestHalfBlocks_UniformColourEmittedOnce(t *testing.T) {
	cells, err := HalfBlocks(solid(8, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255}), 8, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := cells.Lines[0]
	if n := strings.Count(line, "\x1b[38;2;10;20;30m"); n != 1 {
		t.Errorf("expected foreground escape once per line, got %d", n)
	}
	if n := strings.Count(line, "\x1b[48;2;10;20;30m"); n != 1 {
		t.Errorf("expected background escape once per line, got %d", n)
	}
}

func TestHalfBlocks_TopAndBottomPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})

	cells, err := HalfBlocks(img, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "\x1b[38;2;255;0;0m\x1b[48;2;0;0;255m▀\x1b[0m"
	if cells.Lines[0] != want {
		t.Errorf("expected %q, got %q", want, cells.Lines[0])
	}
}

func TestHalfBlocks_ThinLineSurvivesDownscale(t *testing.T) {
	img := solid(200, 100, color.Black)
	for x := 0; x < 200; x++ {
		img.Set(x, 50, color.White)
	}
	cells, err := HalfBlocks(img, 20, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cells.String() == "" || !strings.Contains(cells.String(), "\x1b[") {
		t.Fatal("expected coloured output")
	}
	px, _ := Resample(img, 20, 5)
	if c := px.NRGBAAt(10, 5); c.R == 0 {
		t.Errorf("expected the thin line to contribute to its cell, got %+v", c)
	}
}

func TestHalfBlocks_Errors(t *testing.T) {
	if _, err := HalfBlocks(nil, 10, 10); err != ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage for nil, got %v", err)
	}
	if _, err := HalfBlocks(image.NewRGBA(image.Rect(0, 0, 0, 0)), 10, 10); err != ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage for empty image, got %v", err)
	}
	if _, err := HalfBlocks(solid(4, 4, color.White), 0, 2); err == nil {
		t.Error("expected error for zero columns")
	}
}
