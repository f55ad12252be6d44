package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// ValidateBuffer checks that buf can be submitted to an engine.
func ValidateBuffer(buf *image.NRGBA) error {
	if buf == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if buf.Rect.Empty() {
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidBuffer, buf.Rect)
	}
	if need := buf.PixOffset(buf.Rect.Max.X-1, buf.Rect.Max.Y-1) + 4; need > len(buf.Pix) {
		return fmt.Errorf("%w: %d bytes for %v", ErrInvalidBuffer, len(buf.Pix), buf.Rect)
	}
	return nil
}

// EncodePNG encodes the working buffer for engines that take encoded images.
func EncodePNG(buf *image.NRGBA) ([]byte, error) {
	if err := ValidateBuffer(buf); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&out, buf); err != nil {
		return nil, fmt.Errorf("encode buffer: %w", err)
	}
	return out.Bytes(), nil
}

// MeanConfidence averages word confidences; it returns 0 for no words.
func MeanConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}
