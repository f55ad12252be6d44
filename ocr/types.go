package ocr

import (
	"context"
	"image"
	"math"
	"time"
)

// StatusRecognizing is the progress status engines report while analysing
// the buffer. Only events carrying this status move the progress bar.
const StatusRecognizing = "recognizing text"

// DefaultLanguage is used when a job is started without a language code.
const DefaultLanguage = "eng"

// BBox is an axis-aligned word box in working buffer pixel coordinates.
type BBox struct {
	X0, Y0, X1, Y1 int
}

func (b BBox) Width() int  { return b.X1 - b.X0 }
func (b BBox) Height() int { return b.Y1 - b.Y0 }

// Rect converts the box to an image.Rectangle.
func (b BBox) Rect() image.Rectangle { return image.Rect(b.X0, b.Y0, b.X1, b.Y1) }

// BBoxFromRect converts an image.Rectangle to a BBox.
func BBoxFromRect(r image.Rectangle) BBox {
	return BBox{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y}
}

// Word is a single recognized token.
type Word struct {
	Text string
	// Confidence is in the range 0-100.
	Confidence float64
	BBox       BBox
}

// Recognition is the raw output of one engine call.
type Recognition struct {
	Text       string
	Confidence float64
	Words      []Word
}

// Result captures the outcome of a completed job. It is superseded, never
// merged, by the next job's result.
type Result struct {
	JobID    string
	Language string
	Text     string
	// Confidence is the overall score in the range 0-100.
	Confidence float64
	Words      []Word
	Duration   time.Duration
}

// ConfidencePercent returns Confidence rounded to a whole percentage.
func (r Result) ConfidencePercent() int {
	return int(math.Round(clampPercent(r.Confidence)))
}

// ProgressEvent is emitted by engines while they initialize and recognize.
// Progress is in the range 0-1.
type ProgressEvent struct {
	Status   string
	Progress float64
}

// EngineRequest describes the engine a job needs.
type EngineRequest struct {
	// Language is the engine language code, e.g. "eng" or "eng+ind".
	Language string
	// Params carries engine-specific knobs (e.g. Tesseract variables) without
	// hard-coding them into the API surface.
	Params map[string]string
}

// EngineFactory creates engine instances scoped to a language. Events
// produced during initialization and recognition are sent on events; the
// engine must stop sending once CreateEngine fails or Terminate returns.
type EngineFactory interface {
	Name() string
	CreateEngine(ctx context.Context, req EngineRequest, events chan<- ProgressEvent) (EngineHandle, error)
}

// EngineHandle is a live engine instance. Terminate releases it and is called
// exactly once per handle.
type EngineHandle interface {
	Recognize(ctx context.Context, buf *image.NRGBA) (Recognition, error)
	Terminate() error
}

// JobState models the lifecycle of a recognition job.
type JobState string

const (
	JobStateIdle         JobState = "idle"
	JobStateInitializing JobState = "initializing"
	JobStateRecognizing  JobState = "recognizing"
	JobStateSucceeded    JobState = "succeeded"
	JobStateFailed       JobState = "failed"
	JobStateTerminated   JobState = "terminated"
)

// Active reports whether a job in this state holds an engine.
func (s JobState) Active() bool {
	return s == JobStateInitializing || s == JobStateRecognizing
}

// JobStatus reports incremental progress for a job.
type JobStatus struct {
	JobID string
	State JobState
	// Message is the latest engine status, or the failure reason once failed.
	Message string
	// Progress is the recognition progress in the range 0-100.
	Progress float64
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
