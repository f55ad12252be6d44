package ocr

import (
	"context"
	"image"
)

var defaultFactory EngineFactory = noopFactory{}

// DefaultFactory returns the library's default engine factory (Tesseract when
// the ocr/tesseract package is linked in).
func DefaultFactory() EngineFactory {
	return defaultFactory
}

// SetDefaultFactory sets the library's default engine factory.
func SetDefaultFactory(f EngineFactory) {
	defaultFactory = f
}

type noopFactory struct{}

func (noopFactory) Name() string {
	return "noop"
}

func (noopFactory) CreateEngine(ctx context.Context, req EngineRequest, events chan<- ProgressEvent) (EngineHandle, error) {
	return noopHandle{}, nil
}

type noopHandle struct{}

func (noopHandle) Recognize(ctx context.Context, buf *image.NRGBA) (Recognition, error) {
	return Recognition{}, nil
}

func (noopHandle) Terminate() error { return nil }
