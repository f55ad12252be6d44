package prepare

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"github.com/wudi/scanocr/pixel"
)

// MaxDimensionPresets are the longest-edge caps offered to users. Zero keeps
// the original size.
var MaxDimensionPresets = []int{0, 800, 1200, 1600}

// Interpolator names accepted in Options.Interpolator.
const (
	InterpNearest        = "nearest"
	InterpApproxBiLinear = "approx-bilinear"
	InterpBiLinear       = "bilinear"
	InterpCatmullRom     = "catmull-rom"
)

var interpolators = map[string]draw.Interpolator{
	InterpNearest:        draw.NearestNeighbor,
	InterpApproxBiLinear: draw.ApproxBiLinear,
	InterpBiLinear:       draw.BiLinear,
	InterpCatmullRom:     draw.CatmullRom,
}

// Interpolators lists the supported resampler names in sorted order.
func Interpolators() []string {
	names := make([]string, 0, len(interpolators))
	for n := range interpolators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Options controls how a source is rendered into the working buffer.
type Options struct {
	// MaxDimension caps the longest edge in pixels. Zero or negative disables
	// resizing.
	MaxDimension int
	// Grayscale maps every pixel to its luma.
	Grayscale bool
	// Binarize thresholds every pixel to black or white. It takes precedence
	// over Grayscale.
	Binarize bool
	// Threshold is the binarization cut-off. Zero means pixel.DefaultThreshold,
	// so the lowest cut-off that can be asked for is 1.
	Threshold uint8
	// Interpolator names the resampler used when downscaling; empty means
	// approx-bilinear.
	Interpolator string
}

// Filter reports the colour transform these options select.
func (o Options) Filter() pixel.Filter {
	switch {
	case o.Binarize:
		return pixel.FilterBinarize
	case o.Grayscale:
		return pixel.FilterGrayscale
	default:
		return pixel.FilterNone
	}
}

// EffectiveThreshold returns the binarization threshold after defaults.
func (o Options) EffectiveThreshold() uint8 {
	if o.Threshold == 0 {
		return pixel.DefaultThreshold
	}
	return o.Threshold
}

// Validate reports option values Render cannot honour.
func (o Options) Validate() error {
	if o.Interpolator != "" {
		if _, ok := interpolators[o.Interpolator]; !ok {
			return fmt.Errorf("unknown interpolator %q (want one of %s)", o.Interpolator, strings.Join(Interpolators(), ", "))
		}
	}
	return nil
}

func (o Options) scaler() draw.Scaler {
	if s, ok := interpolators[o.Interpolator]; ok {
		return s
	}
	return draw.ApproxBiLinear
}
