package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/scanocr/ocr"
)

func init() {
	ocr.SetDefaultFactory(New())
}

// Engine status strings, mirroring the phases Tesseract goes through.
const (
	StatusInitializing = "initializing api"
	StatusInitialized  = "initialized api"
	StatusLoadingLang  = "loading language traineddata"
)

// Option configures a Factory.
type Option func(*Factory)

// WithLanguageCheck toggles verifying that trained data for every requested
// language is installed before an engine is handed out. It is on by default.
func WithLanguageCheck(enabled bool) Option {
	return func(f *Factory) { f.checkLanguages = enabled }
}

// WithParams applies Tesseract variables to every engine, underneath any
// request-level parameters.
func WithParams(params map[string]string) Option {
	return func(f *Factory) {
		for k, v := range params {
			f.params[k] = v
		}
	}
}

// Factory implements ocr.EngineFactory on top of gosseract.
type Factory struct {
	clientFactory  func() *gosseract.Client
	availableLangs func() ([]string, error)
	checkLanguages bool
	params         map[string]string
}

// New constructs a Tesseract-backed engine factory.
func New(opts ...Option) *Factory {
	f := &Factory{
		clientFactory:  gosseract.NewClient,
		availableLangs: gosseract.GetAvailableLanguages,
		checkLanguages: true,
		params:         map[string]string{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Name() string { return "tesseract" }

// CreateEngine prepares a client for req.Language. Multiple languages are
// joined with '+', e.g. "eng+ind".
func (f *Factory) CreateEngine(ctx context.Context, req ocr.EngineRequest, events chan<- ocr.ProgressEvent) (ocr.EngineHandle, error) {
	langs := SplitLanguages(req.Language)
	if len(langs) == 0 {
		return nil, fmt.Errorf("no language requested")
	}
	e := &engine{events: events}
	e.emit(ctx, StatusInitializing, 0)

	if f.checkLanguages {
		e.emit(ctx, StatusLoadingLang, 0)
		if err := f.verifyLanguages(langs); err != nil {
			return nil, err
		}
		e.emit(ctx, StatusLoadingLang, 1)
	}

	c := f.clientFactory()
	if err := c.SetLanguage(langs...); err != nil {
		c.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	params := make(map[string]string, len(f.params)+len(req.Params))
	for k, v := range f.params {
		params[k] = v
	}
	for k, v := range req.Params {
		params[k] = v
	}
	for k, v := range params {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			c.Close()
			return nil, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	e.client = c
	e.emit(ctx, StatusInitialized, 1)
	return e, nil
}

func (f *Factory) verifyLanguages(langs []string) error {
	available, err := f.availableLangs()
	if err != nil {
		return fmt.Errorf("list trained data: %w", err)
	}
	have := make(map[string]bool, len(available))
	for _, l := range available {
		have[l] = true
	}
	var missing []string
	for _, l := range langs {
		if !have[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("trained data not installed: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SplitLanguages splits a '+' separated language code into its parts.
func SplitLanguages(code string) []string {
	var langs []string
	for _, l := range strings.Split(code, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

type engine struct {
	client *gosseract.Client
	events chan<- ocr.ProgressEvent

	once sync.Once
}

func (e *engine) emit(ctx context.Context, status string, progress float64) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- ocr.ProgressEvent{Status: status, Progress: progress}:
	case <-ctx.Done():
	}
}

// Recognize runs Tesseract over buf and collects word boxes.
func (e *engine) Recognize(ctx context.Context, buf *image.NRGBA) (ocr.Recognition, error) {
	data, err := ocr.EncodePNG(buf)
	if err != nil {
		return ocr.Recognition{}, err
	}
	e.emit(ctx, ocr.StatusRecognizing, 0)
	if err := e.client.SetImageFromBytes(data); err != nil {
		return ocr.Recognition{}, fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("recognize text: %w", err)
	}
	e.emit(ctx, ocr.StatusRecognizing, 0.5)
	if err := ctx.Err(); err != nil {
		return ocr.Recognition{}, err
	}
	words, err := extractWords(e.client)
	if err != nil {
		return ocr.Recognition{}, err
	}
	e.emit(ctx, ocr.StatusRecognizing, 1)
	return ocr.Recognition{
		Text:       strings.TrimSpace(text),
		Confidence: ocr.MeanConfidence(words),
		Words:      words,
	}, nil
}

// Terminate closes the underlying client. Further calls are no-ops.
func (e *engine) Terminate() error {
	var err error
	e.once.Do(func() {
		if e.client != nil {
			err = e.client.Close()
		}
	})
	return err
}

func extractWords(c *gosseract.Client) ([]ocr.Word, error) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("word boxes: %w", err)
	}
	return wordsFromBoxes(boxes), nil
}

// wordsFromBoxes drops blank tokens and boxes with no area.
func wordsFromBoxes(boxes []gosseract.BoundingBox) []ocr.Word {
	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		bbox := ocr.BBoxFromRect(b.Box)
		if strings.TrimSpace(b.Word) == "" || bbox.Width() <= 0 || bbox.Height() <= 0 {
			continue
		}
		words = append(words, ocr.Word{
			Text:       b.Word,
			Confidence: b.Confidence,
			BBox:       bbox,
		})
	}
	return words
}
