// Package overlay draws recognized word boxes onto the working buffer that
// produced them.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/scanocr/ocr"
)

const (
	DefaultThreshold = 50.0
	DefaultLineWidth = 2
)

// DefaultStroke is bright green.
var DefaultStroke = color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}

type options struct {
	threshold float64
	stroke    color.Color
	lineWidth int
	labels    bool
	face      font.Face
}

// Option configures Draw.
type Option func(*options)

// WithThreshold sets the confidence a word must exceed to be drawn.
func WithThreshold(t float64) Option {
	return func(o *options) { o.threshold = t }
}

// WithStroke sets the box colour.
func WithStroke(c color.Color) Option {
	return func(o *options) {
		if c != nil {
			o.stroke = c
		}
	}
}

// WithLineWidth sets the stroke width in pixels. The stroke straddles the
// box edge.
func WithLineWidth(w int) Option {
	return func(o *options) {
		if w > 0 {
			o.lineWidth = w
		}
	}
}

// WithLabels draws each word's rounded confidence just above its box.
func WithLabels(face font.Face) Option {
	return func(o *options) {
		o.labels = true
		if face != nil {
			o.face = face
		}
	}
}

// Visible returns the words whose confidence exceeds threshold.
func Visible(words []ocr.Word, threshold float64) []ocr.Word {
	var out []ocr.Word
	for _, w := range words {
		if w.Confidence > threshold {
			out = append(out, w)
		}
	}
	return out
}

// Draw strokes an unfilled rectangle onto buf for every word whose confidence
// exceeds the threshold and returns the boxes drawn, in word order. Words at
// or below the threshold are skipped. Overlapping boxes simply overdraw.
func Draw(buf *image.NRGBA, words []ocr.Word, opts ...Option) []image.Rectangle {
	o := options{
		threshold: DefaultThreshold,
		stroke:    DefaultStroke,
		lineWidth: DefaultLineWidth,
		face:      basicfont.Face7x13,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if buf == nil {
		return nil
	}
	src := image.NewUniform(o.stroke)
	var drawn []image.Rectangle
	for _, w := range Visible(words, o.threshold) {
		r := w.BBox.Rect()
		strokeRect(buf, r, o.lineWidth, src)
		if o.labels {
			label(buf, r, w.Confidence, o.face, src)
		}
		drawn = append(drawn, r)
	}
	return drawn
}

func strokeRect(dst draw.Image, r image.Rectangle, lw int, src image.Image) {
	half := lw / 2
	outer := image.Rectangle{
		Min: image.Pt(r.Min.X-half, r.Min.Y-half),
		Max: image.Pt(r.Max.X-half+lw, r.Max.Y-half+lw),
	}
	inner := image.Rectangle{
		Min: image.Pt(r.Min.X-half+lw, r.Min.Y-half+lw),
		Max: image.Pt(r.Max.X-half, r.Max.Y-half),
	}
	if inner.Dx() <= 0 || inner.Dy() <= 0 {
		draw.Draw(dst, outer, src, image.Point{}, draw.Over)
		return
	}
	bands := []image.Rectangle{
		{Min: outer.Min, Max: image.Pt(outer.Max.X, inner.Min.Y)},
		{Min: image.Pt(outer.Min.X, inner.Max.Y), Max: outer.Max},
		{Min: image.Pt(outer.Min.X, inner.Min.Y), Max: image.Pt(inner.Min.X, inner.Max.Y)},
		{Min: image.Pt(inner.Max.X, inner.Min.Y), Max: image.Pt(outer.Max.X, inner.Max.Y)},
	}
	for _, b := range bands {
		draw.Draw(dst, b, src, image.Point{}, draw.Over)
	}
}

func label(dst draw.Image, r image.Rectangle, confidence float64, face font.Face, src image.Image) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.P(r.Min.X, r.Min.Y-2),
	}
	d.DrawString(fmt.Sprintf("%d%%", int(math.Round(confidence))))
}
