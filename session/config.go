package session

import (
	"github.com/wudi/scanocr/observability"
	"github.com/wudi/scanocr/ocr"
	"github.com/wudi/scanocr/overlay"
	"github.com/wudi/scanocr/prepare"
)

// Config holds the session settings. The zero value is usable; DefaultConfig
// spells out the defaults.
type Config struct {
	// Options are the initial processing options.
	Options prepare.Options
	// Language is used when RunRecognition is called with an empty code.
	Language string
	// ConfidenceThreshold is the score a word must exceed to get a box. It is
	// used as given, so zero boxes every word with a positive score;
	// DefaultConfig starts from overlay.DefaultThreshold.
	ConfidenceThreshold float64
	// Labels draws each box's confidence above it.
	Labels bool
	// EngineOptions are applied to every engine request.
	EngineOptions []ocr.EngineOption
	// ProgressBuffer sizes the channel returned by Progress.
	ProgressBuffer int

	Logger observability.Logger
	Tracer observability.Tracer
}

// DefaultConfig returns the settings the session uses when none are given.
func DefaultConfig() Config {
	return Config{
		Options:             prepare.Options{MaxDimension: 1200},
		Language:            ocr.DefaultLanguage,
		ConfidenceThreshold: overlay.DefaultThreshold,
		ProgressBuffer:      64,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.ProgressBuffer <= 0 {
		c.ProgressBuffer = d.ProgressBuffer
	}
	c.Logger = observability.OrNop(c.Logger)
	if c.Tracer == nil {
		c.Tracer = observability.NopTracer()
	}
	return c
}
