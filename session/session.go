// Package session holds the state of one interactive OCR session: the loaded
// image, the processing options, the working buffer, the recognition job and
// its result. All mutation goes through a Session so the result shown is
// always the one produced from the buffer on display.
package session

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/wudi/scanocr/observability"
	"github.com/wudi/scanocr/ocr"
	"github.com/wudi/scanocr/overlay"
	"github.com/wudi/scanocr/prepare"
)

// Session is safe for concurrent use. At most one recognition runs at a time;
// loads, option changes and renders are rejected while it does.
type Session struct {
	cfg      Config
	job      *ocr.Job
	progress chan ocr.JobStatus
	logger   observability.Logger
	tracer   observability.Tracer

	mu         sync.Mutex
	source     *prepare.Source
	opts       prepare.Options
	buffer     *image.NRGBA
	generation uint64
	result     *ocr.Result
	boxes      []image.Rectangle
	busy       bool
	epoch      uint64
}

// New creates a session that obtains engines from factory. A nil factory uses
// ocr.DefaultFactory().
func New(factory ocr.EngineFactory, cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:      cfg,
		progress: make(chan ocr.JobStatus, cfg.ProgressBuffer),
		logger:   cfg.Logger,
		tracer:   cfg.Tracer,
		opts:     cfg.Options,
	}
	s.job = ocr.NewJob(factory,
		ocr.WithLogger(cfg.Logger),
		ocr.WithTracer(cfg.Tracer),
		ocr.WithProgress(s.progress),
		ocr.WithEngineOptions(cfg.EngineOptions...),
	)
	return s
}

// LoadImage decodes data and makes it the session image, replacing any
// previous one and rendering it with the current options. A rejected upload
// leaves the previous image in place.
func (s *Session) LoadImage(data []byte, mimeType string) error {
	src, err := prepare.LoadImage(data, mimeType)
	if err != nil {
		s.logger.Warn("image rejected", observability.String("mime_type", mimeType), observability.Error("error", err))
		return err
	}
	return s.setSource(src)
}

// LoadFile is LoadImage for a file on disk.
func (s *Session) LoadFile(path string) error {
	src, err := prepare.LoadFile(path)
	if err != nil {
		s.logger.Warn("image rejected", observability.String("path", path), observability.Error("error", err))
		return err
	}
	return s.setSource(src)
}

func (s *Session) setSource(src *prepare.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return &ocr.StateError{Op: "load image", State: s.job.Status().State, Err: ocr.ErrJobActive}
	}
	prev := s.source
	s.source = src
	s.invalidateLocked()
	if err := s.renderLocked(); err != nil {
		s.source = prev
		return err
	}
	s.logger.Info("image loaded",
		observability.Int("width", src.Width),
		observability.Int("height", src.Height),
		observability.String("format", src.Format),
	)
	return nil
}

// SetOptions replaces the processing options. Any previous result and its
// overlay are invalidated and, when an image is loaded, the buffer is
// re-rendered.
func (s *Session) SetOptions(opts prepare.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return &ocr.StateError{Op: "set options", State: s.job.Status().State, Err: ocr.ErrJobActive}
	}
	s.opts = opts
	s.invalidateLocked()
	if s.source == nil {
		return nil
	}
	return s.renderLocked()
}

// Render regenerates the working buffer from the image and options. The
// previous buffer, result and overlay are dropped.
func (s *Session) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return &ocr.StateError{Op: "render", State: s.job.Status().State, Err: ocr.ErrJobActive}
	}
	if s.source == nil {
		return &ocr.StateError{Op: "render", Err: ocr.ErrNoImage}
	}
	s.invalidateLocked()
	return s.renderLocked()
}

// RunRecognition renders a clean buffer, recognizes it and draws the boxes of
// confident words onto it. It is rejected with a *ocr.StateError when no image
// is loaded or a recognition is already running. Engine faults are returned as
// *ocr.EngineInitError or *ocr.RecognitionError; no partial result is kept.
func (s *Session) RunRecognition(ctx context.Context, language string) (ocr.Result, error) {
	if language == "" {
		language = s.cfg.Language
	}
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return ocr.Result{}, &ocr.StateError{Op: "run recognition", Err: ocr.ErrNoImage}
	}
	if s.busy || s.job.Active() {
		s.mu.Unlock()
		return ocr.Result{}, &ocr.StateError{Op: "run recognition", State: s.job.Status().State, Err: ocr.ErrJobActive}
	}
	s.invalidateLocked()
	if err := s.renderLocked(); err != nil {
		s.mu.Unlock()
		return ocr.Result{}, err
	}
	s.busy = true
	epoch, gen, buf := s.epoch, s.generation, s.buffer
	s.mu.Unlock()

	res, err := s.job.Start(ctx, buf, language)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.logger.Debug("recognition result dropped after reset")
		return ocr.Result{}, ocr.ErrDiscarded
	}
	s.busy = false
	if err != nil {
		return ocr.Result{}, err
	}
	if gen != s.generation {
		return ocr.Result{}, ocr.ErrStaleBuffer
	}
	s.boxes = overlay.Draw(buf, res.Words, s.overlayOptions()...)
	s.result = &res
	s.logger.Debug("overlay drawn", observability.Int(observability.MetricOverlayBoxCount, len(s.boxes)))
	return res, nil
}

// Reset drops the image, buffer and result. A recognition in flight is
// abandoned: its engine is still terminated but its result is discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.busy = false
	s.source = nil
	s.buffer = nil
	s.generation++
	s.invalidateLocked()
	s.job.Discard()
	s.logger.Info("session reset")
}

func (s *Session) overlayOptions() []overlay.Option {
	opts := []overlay.Option{overlay.WithThreshold(s.cfg.ConfidenceThreshold)}
	if s.cfg.Labels {
		opts = append(opts, overlay.WithLabels(nil))
	}
	return opts
}

func (s *Session) invalidateLocked() {
	s.result = nil
	s.boxes = nil
}

func (s *Session) renderLocked() error {
	_, span := s.tracer.StartSpan(context.Background(), observability.SpanRender)
	defer span.Finish()
	start := time.Now()
	buf, err := prepare.Render(s.source, s.opts)
	if err != nil {
		span.SetError(err)
		return err
	}
	s.buffer = buf
	s.generation++
	s.logger.Debug("buffer rendered",
		observability.Int("width", buf.Rect.Dx()),
		observability.Int("height", buf.Rect.Dy()),
		observability.String("filter", s.opts.Filter().String()),
		observability.Duration(observability.MetricRenderTime, time.Since(start)),
	)
	return nil
}
