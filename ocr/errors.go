package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrJobActive rejects a start, load or option change while a job holds an engine.
	ErrJobActive = errors.New("recognition already in progress")
	// ErrNoImage rejects recognition before an image is loaded.
	ErrNoImage = errors.New("no image loaded")
	// ErrStaleBuffer rejects drawing results over a buffer that did not produce them.
	ErrStaleBuffer = errors.New("working buffer changed since recognition")
	// ErrDiscarded is returned by a run whose job was discarded while in flight.
	ErrDiscarded = errors.New("job discarded")
	// ErrInvalidBuffer rejects nil or empty working buffers.
	ErrInvalidBuffer = errors.New("invalid working buffer")
)

// StateError is a guard rejection: the call was ignored and no state changed.
// It is not a recognition failure.
type StateError struct {
	Op    string
	State JobState
	Err   error
}

func (e *StateError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v (state %s)", e.Op, e.Err, e.State)
}

func (e *StateError) Unwrap() error { return e.Err }

// EngineInitError reports an engine that could not be created, e.g. because
// trained data for the language is unavailable.
type EngineInitError struct {
	Language string
	Err      error
}

func (e *EngineInitError) Error() string {
	return fmt.Sprintf("initialize engine for %q: %v", e.Language, e.Err)
}

func (e *EngineInitError) Unwrap() error { return e.Err }

// RecognitionError reports an engine fault during analysis. The underlying
// message is preserved.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognize: %v", e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// IsStateError reports whether err is a guard rejection rather than a fault.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// FailureReason renders err as the human-readable reason shown to users.
func FailureReason(err error) string {
	var (
		initErr *EngineInitError
		recErr  *RecognitionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &initErr):
		return fmt.Sprintf("could not start OCR engine for %s: %v", initErr.Language, initErr.Err)
	case errors.As(err, &recErr):
		return recErr.Err.Error()
	default:
		return err.Error()
	}
}

type panicError struct {
	value interface{}
}

func (e panicError) Error() string { return fmt.Sprintf("engine panic: %v", e.value) }

var errNilHandle = errors.New("engine factory returned no handle")
