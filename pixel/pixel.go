package pixel

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultThreshold is the luma cut-off used by ApplyBinarize when callers do
// not pick one.
const DefaultThreshold uint8 = 128

// BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Filter selects the final colour transform applied to a working buffer.
type Filter int

const (
	FilterNone Filter = iota
	FilterGrayscale
	FilterBinarize
)

func (f Filter) String() string {
	switch f {
	case FilterGrayscale:
		return "grayscale"
	case FilterBinarize:
		return "binarize"
	default:
		return "none"
	}
}

// TargetDimensions caps the longest edge of a srcW x srcH image at
// maxDimension, scaling the other edge proportionally and rounding to the
// nearest pixel. A non-positive maxDimension, or an image that already fits,
// is returned unchanged.
func TargetDimensions(srcW, srcH, maxDimension int) (int, int) {
	if maxDimension <= 0 || (srcW <= maxDimension && srcH <= maxDimension) {
		return srcW, srcH
	}
	if srcW > srcH {
		h := int(math.Round(float64(srcH) * float64(maxDimension) / float64(srcW)))
		return maxDimension, atLeastOne(h)
	}
	w := int(math.Round(float64(srcW) * float64(maxDimension) / float64(srcH)))
	return atLeastOne(w), maxDimension
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Luma returns the BT.601 weighted brightness of an RGB triple in [0, 255].
func Luma(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// ApplyGrayscale replaces the colour channels of every pixel with its rounded
// luma. Alpha is left untouched.
func ApplyGrayscale(buf *image.NRGBA) {
	if buf == nil {
		return
	}
	copyBack(buf, imaging.Grayscale(buf))
}

// ApplyBinarize sets every pixel to pure white when its luma is at least
// threshold and to pure black otherwise. Alpha is left untouched.
func ApplyBinarize(buf *image.NRGBA, threshold uint8) {
	if buf == nil {
		return
	}
	t := float64(threshold)
	copyBack(buf, imaging.AdjustFunc(buf, func(c color.NRGBA) color.NRGBA {
		var v uint8
		if Luma(c.R, c.G, c.B) >= t {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	}))
}

// Apply runs the given filter over buf in place. Luma is always derived from
// the pixel's current colour, so the filters never compound: Binarize on a
// colour buffer yields the same output whether or not Grayscale was requested.
func Apply(buf *image.NRGBA, f Filter, threshold uint8) {
	switch f {
	case FilterBinarize:
		ApplyBinarize(buf, threshold)
	case FilterGrayscale:
		ApplyGrayscale(buf)
	}
}

// copyBack writes out, which imaging always anchors at (0, 0), over the
// pixels of buf. Rows are copied verbatim so partially transparent pixels keep
// their exact non-premultiplied values.
func copyBack(buf, out *image.NRGBA) {
	b := buf.Rect
	n := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		dst := buf.PixOffset(b.Min.X, b.Min.Y+y)
		src := out.PixOffset(0, y)
		copy(buf.Pix[dst:dst+n], out.Pix[src:src+n])
	}
}
