package prepare

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/wudi/scanocr/pixel"
)

// Render rasterizes src into a freshly allocated buffer sized by
// pixel.TargetDimensions and applies the colour filter selected by opts.
// The buffer origin is always (0, 0).
func Render(src *Source, opts Options) (*image.NRGBA, error) {
	if src == nil || src.img == nil {
		return nil, ErrNoSource
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	sb := src.img.Bounds()
	w, h := pixel.TargetDimensions(sb.Dx(), sb.Dy(), opts.MaxDimension)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src.img, sb.Min, draw.Src)
	} else {
		opts.scaler().Scale(dst, dst.Bounds(), src.img, sb, draw.Src, nil)
	}
	pixel.Apply(dst, opts.Filter(), opts.EffectiveThreshold())
	return dst, nil
}
