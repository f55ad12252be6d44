package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestValidateBuffer(t *testing.T) {
	if err := ValidateBuffer(image.NewNRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("valid buffer rejected: %v", err)
	}
	short := &image.NRGBA{Pix: make([]uint8, 4), Stride: 8, Rect: image.Rect(0, 0, 2, 2)}
	if err := ValidateBuffer(short); !errors.Is(err, ErrInvalidBuffer) {
		t.Fatalf("expected ErrInvalidBuffer for truncated pixels, got %v", err)
	}
}

func TestEncodePNG(t *testing.T) {
	buf := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	buf.SetNRGBA(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	data, err := EncodePNG(buf)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != buf.Bounds() {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	r, g, b, _ := img.At(2, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Fatalf("pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestMeanConfidence(t *testing.T) {
	if MeanConfidence(nil) != 0 {
		t.Fatalf("expected 0 for no words")
	}
	if got := MeanConfidence([]Word{{Confidence: 90}, {Confidence: 70}}); got != 80 {
		t.Fatalf("MeanConfidence = %v", got)
	}
}
