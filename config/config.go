// Package config reads scanocr settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wudi/scanocr/observability"
	"github.com/wudi/scanocr/ocr"
	"github.com/wudi/scanocr/overlay"
	"github.com/wudi/scanocr/prepare"
	"github.com/wudi/scanocr/session"
)

type Config struct {
	Language string `yaml:"language"`

	MaxDimension int    `yaml:"max_dimension"`
	Grayscale    bool   `yaml:"grayscale"`
	Binarize     bool   `yaml:"binarize"`
	Threshold    uint8  `yaml:"threshold"`
	Interpolator string `yaml:"interpolator"`

	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	Labels              bool    `yaml:"labels"`

	Tesseract Tesseract `yaml:"tesseract"`
	Log       Log       `yaml:"log"`
}

type Tesseract struct {
	PSM       int               `yaml:"psm"`
	Whitelist string            `yaml:"whitelist"`
	DPI       int               `yaml:"dpi"`
	Params    map[string]string `yaml:"params"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	d := session.DefaultConfig()
	return &Config{
		Language:            d.Language,
		MaxDimension:        d.Options.MaxDimension,
		Interpolator:        prepare.InterpApproxBiLinear,
		ConfidenceThreshold: overlay.DefaultThreshold,
		Log:                 Log{Level: "info", Format: "text"},
	}
}

// Load reads and validates the file at path. Fields missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := c.ProcessingOptions().Validate(); err != nil {
		return err
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("max_dimension must not be negative: %d", c.MaxDimension)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence_threshold must be within 0-100: %v", c.ConfidenceThreshold)
	}
	if c.Tesseract.PSM < 0 || c.Tesseract.PSM > 13 {
		return fmt.Errorf("tesseract.psm must be within 0-13: %d", c.Tesseract.PSM)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// ProcessingOptions returns the render options described by c.
func (c *Config) ProcessingOptions() prepare.Options {
	return prepare.Options{
		MaxDimension: c.MaxDimension,
		Grayscale:    c.Grayscale,
		Binarize:     c.Binarize,
		Threshold:    c.Threshold,
		Interpolator: c.Interpolator,
	}
}

// EngineOptions returns the engine request options described by c.
func (c *Config) EngineOptions() []ocr.EngineOption {
	var opts []ocr.EngineOption
	if len(c.Tesseract.Params) > 0 {
		opts = append(opts, ocr.WithParams(c.Tesseract.Params))
	}
	if c.Tesseract.PSM > 0 {
		opts = append(opts, ocr.WithTesseractPSM(c.Tesseract.PSM))
	}
	if c.Tesseract.Whitelist != "" {
		opts = append(opts, ocr.WithTesseractWhitelist(c.Tesseract.Whitelist))
	}
	if c.Tesseract.DPI > 0 {
		opts = append(opts, ocr.WithDPI(c.Tesseract.DPI))
	}
	return opts
}

// Session builds the session configuration described by c.
func (c *Config) Session(logger observability.Logger) session.Config {
	return session.Config{
		Options:             c.ProcessingOptions(),
		Language:            c.Language,
		ConfidenceThreshold: c.ConfidenceThreshold,
		Labels:              c.Labels,
		EngineOptions:       c.EngineOptions(),
		Logger:              logger,
	}
}
