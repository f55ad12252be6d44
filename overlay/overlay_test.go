package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/wudi/scanocr/ocr"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func whiteBuffer(w, h int) *image.NRGBA {
	buf := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range buf.Pix {
		buf.Pix[i] = 255
	}
	return buf
}

func TestDrawSkipsLowConfidence(t *testing.T) {
	buf := whiteBuffer(100, 60)
	words := []ocr.Word{
		{Text: "kept", Confidence: 80, BBox: ocr.BBox{X0: 10, Y0: 10, X1: 50, Y1: 30}},
		{Text: "dropped", Confidence: 40, BBox: ocr.BBox{X0: 60, Y0: 35, X1: 90, Y1: 55}},
	}
	drawn := Draw(buf, words)
	if len(drawn) != 1 {
		t.Fatalf("expected 1 rectangle, got %d", len(drawn))
	}
	r := drawn[0]
	if r.Min != image.Pt(10, 10) || r.Dx() != 40 || r.Dy() != 20 {
		t.Fatalf("unexpected rectangle %v", r)
	}

	for _, p := range []image.Point{{10, 20}, {9, 20}, {49, 20}, {50, 20}, {30, 10}, {30, 9}, {30, 29}, {30, 30}} {
		if got := buf.NRGBAAt(p.X, p.Y); got != DefaultStroke {
			t.Fatalf("edge pixel %v = %+v, want stroke", p, got)
		}
	}
	for _, p := range []image.Point{{30, 20}, {11, 20}, {8, 20}, {51, 20}, {30, 31}, {75, 45}, {60, 35}} {
		if got := buf.NRGBAAt(p.X, p.Y); got != white {
			t.Fatalf("pixel %v = %+v, want untouched", p, got)
		}
	}
}

func TestDrawThresholdBoundary(t *testing.T) {
	words := []ocr.Word{
		{Confidence: 50, BBox: ocr.BBox{X0: 1, Y0: 1, X1: 5, Y1: 5}},
		{Confidence: 50.01, BBox: ocr.BBox{X0: 6, Y0: 1, X1: 9, Y1: 5}},
		{Confidence: 65, BBox: ocr.BBox{X0: 10, Y0: 1, X1: 14, Y1: 5}},
		{Confidence: 90, BBox: ocr.BBox{X0: 15, Y0: 1, X1: 19, Y1: 5}},
	}
	if got := len(Draw(whiteBuffer(20, 6), words)); got != 3 {
		t.Fatalf("default threshold drew %d boxes, want 3", got)
	}
	if got := len(Draw(whiteBuffer(20, 6), words, WithThreshold(65))); got != 1 {
		t.Fatalf("threshold 65 drew %d boxes, want 1", got)
	}
	if got := len(Draw(whiteBuffer(20, 6), words, WithThreshold(0))); got != 4 {
		t.Fatalf("threshold 0 drew %d boxes, want 4", got)
	}
}

func TestDrawClipsAndOverdraws(t *testing.T) {
	buf := whiteBuffer(10, 10)
	words := []ocr.Word{
		{Confidence: 99, BBox: ocr.BBox{X0: 0, Y0: 0, X1: 10, Y1: 10}},
		{Confidence: 99, BBox: ocr.BBox{X0: 0, Y0: 0, X1: 10, Y1: 10}},
		{Confidence: 99, BBox: ocr.BBox{X0: 4, Y0: 4, X1: 5, Y1: 5}},
	}
	red := color.NRGBA{R: 255, A: 255}
	drawn := Draw(buf, words, WithStroke(red), WithLineWidth(1))
	if len(drawn) != 3 {
		t.Fatalf("expected 3 rectangles, got %d", len(drawn))
	}
	if got := buf.NRGBAAt(0, 5); got != red {
		t.Fatalf("left edge = %+v", got)
	}
	if got := buf.NRGBAAt(4, 4); got != red {
		t.Fatalf("tiny box = %+v", got)
	}
	if got := buf.NRGBAAt(2, 2); got != white {
		t.Fatalf("interior = %+v", got)
	}
}

func TestDrawLabels(t *testing.T) {
	plain := whiteBuffer(80, 40)
	labelled := whiteBuffer(80, 40)
	words := []ocr.Word{{Confidence: 87, BBox: ocr.BBox{X0: 5, Y0: 20, X1: 40, Y1: 35}}}
	Draw(plain, words)
	Draw(labelled, words, WithLabels(nil))

	changed := false
	for y := 0; y < 18; y++ {
		for x := 0; x < 80; x++ {
			if plain.NRGBAAt(x, y) != labelled.NRGBAAt(x, y) {
				changed = true
			}
		}
	}
	if !changed {
		t.Fatalf("expected label pixels above the box")
	}
}

func TestVisible(t *testing.T) {
	words := []ocr.Word{{Text: "a", Confidence: 10}, {Text: "b", Confidence: 70}}
	got := Visible(words, DefaultThreshold)
	if len(got) != 1 || got[0].Text != "b" {
		t.Fatalf("Visible() = %+v", got)
	}
}

func TestDrawNilBuffer(t *testing.T) {
	if got := Draw(nil, []ocr.Word{{Confidence: 99}}); got != nil {
		t.Fatalf("expected nil for nil buffer, got %v", got)
	}
}
