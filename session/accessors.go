package session

import (
	"image"

	"github.com/wudi/scanocr/ocr"
	"github.com/wudi/scanocr/prepare"
)

// Progress delivers job status changes. Updates are dropped rather than
// blocking the job when the reader falls behind.
func (s *Session) Progress() <-chan ocr.JobStatus { return s.progress }

// Status returns the current job status.
func (s *Session) Status() ocr.JobStatus { return s.job.Status() }

// State returns the current job state.
func (s *Session) State() ocr.JobState { return s.job.Status().State }

// HasImage reports whether an image is loaded.
func (s *Session) HasImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source != nil
}

// Source returns the loaded image, or nil.
func (s *Session) Source() *prepare.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Options returns the current processing options.
func (s *Session) Options() prepare.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Buffer returns a copy of the working buffer for display, or nil when no
// image is loaded.
func (s *Session) Buffer() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return nil
	}
	cp := *s.buffer
	cp.Pix = append([]uint8(nil), s.buffer.Pix...)
	return &cp
}

// Result returns the latest result if it is still valid for the buffer.
func (s *Session) Result() (ocr.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return ocr.Result{}, false
	}
	return *s.result, true
}

// Text returns the extracted text of the current result.
func (s *Session) Text() string {
	res, _ := s.Result()
	return res.Text
}

// ConfidencePercent returns the rounded overall confidence of the current
// result.
func (s *Session) ConfidencePercent() (int, bool) {
	res, ok := s.Result()
	if !ok {
		return 0, false
	}
	return res.ConfidencePercent(), true
}

// Overlay returns the word boxes drawn on the current buffer.
func (s *Session) Overlay() []image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]image.Rectangle(nil), s.boxes...)
}
