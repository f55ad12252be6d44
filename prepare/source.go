package prepare

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotAnImage is reported when the declared content type is not image/*.
	ErrNotAnImage = errors.New("not an image")
	// ErrUndecodable is reported when image bytes cannot be decoded.
	ErrUndecodable = errors.New("image cannot be decoded")
	// ErrEmptyImage is reported for images with zero width or height.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrNoSource is returned by Render when no source image is supplied.
	ErrNoSource = errors.New("no source image")
)

// InputError reports a rejected upload. The caller may retry with another file.
type InputError struct {
	MIMEType string
	Err      error
}

func (e *InputError) Error() string {
	if e.MIMEType == "" {
		return fmt.Sprintf("load image: %v", e.Err)
	}
	return fmt.Sprintf("load image (%s): %v", e.MIMEType, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Source is a decoded raster image. It is never mutated after loading.
type Source struct {
	img      image.Image
	Width    int
	Height   int
	Format   string
	MIMEType string
}

// Image returns the decoded image.
func (s *Source) Image() image.Image { return s.img }

// Bounds returns the source rectangle.
func (s *Source) Bounds() image.Rectangle { return s.img.Bounds() }

// NewSource wraps an already decoded image.
func NewSource(img image.Image) (*Source, error) {
	if img == nil {
		return nil, &InputError{Err: ErrNoSource}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, &InputError{Err: ErrEmptyImage}
	}
	return &Source{img: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// LoadImage decodes data as an image. mimeType must be an image/* type; an
// empty mimeType is sniffed from the data.
func LoadImage(data []byte, mimeType string) (*Source, error) {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	if !strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return nil, &InputError{MIMEType: mimeType, Err: ErrNotAnImage}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InputError{MIMEType: mimeType, Err: fmt.Errorf("%w: %v", ErrUndecodable, err)}
	}
	src, err := NewSource(img)
	if err != nil {
		var ie *InputError
		if errors.As(err, &ie) {
			ie.MIMEType = mimeType
		}
		return nil, err
	}
	src.Format = format
	src.MIMEType = mimeType
	return src, nil
}

// LoadFile reads path and decodes it, taking the content type from the file
// extension when it is known.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return LoadImage(data, typeByExtension(filepath.Ext(path)))
}

// Formats missing from the builtin mime table on minimal systems.
var extraTypes = map[string]string{
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

func typeByExtension(ext string) string {
	ext = strings.ToLower(ext)
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return extraTypes[ext]
}
