package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/scanocr/ocr"
	"github.com/wudi/scanocr/pixel"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if c.Language != "eng" || c.MaxDimension != 1200 || c.ConfidenceThreshold != 50 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ProcessingOptions().EffectiveThreshold() != pixel.DefaultThreshold {
		t.Fatalf("unexpected threshold")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanocr.yaml")
	data := `
language: eng+ind
max_dimension: 1600
binarize: true
threshold: 140
interpolator: catmull-rom
confidence_threshold: 65
labels: true
tesseract:
  psm: 6
  dpi: 300
  whitelist: "0123456789"
  params:
    preserve_interword_spaces: "1"
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	opts := c.ProcessingOptions()
	if opts.MaxDimension != 1600 || !opts.Binarize || opts.Threshold != 140 || opts.Interpolator != "catmull-rom" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	req := ocr.EngineRequest{}
	for _, o := range c.EngineOptions() {
		o(&req)
	}
	want := map[string]string{
		"tessedit_pageseg_mode":     "6",
		"user_defined_dpi":          "300",
		"tessedit_char_whitelist":   "0123456789",
		"preserve_interword_spaces": "1",
	}
	for k, v := range want {
		if req.Params[k] != v {
			t.Fatalf("param %s = %q, want %q (all: %+v)", k, req.Params[k], v, req.Params)
		}
	}
	sc := c.Session(nil)
	if sc.Language != "eng+ind" || sc.ConfidenceThreshold != 65 || !sc.Labels {
		t.Fatalf("unexpected session config: %+v", sc)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Fatalf("unexpected log config: %+v", c.Log)
	}
}

func TestParseZeroConfidenceThreshold(t *testing.T) {
	c, err := Parse([]byte("confidence_threshold: 0\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sc := c.Session(nil); sc.ConfidenceThreshold != 0 {
		t.Fatalf("session threshold = %v, want 0", sc.ConfidenceThreshold)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "colour: true\n",
		"negative max":    "max_dimension: -1\n",
		"bad interp":      "interpolator: lanczos\n",
		"bad confidence":  "confidence_threshold: 150\n",
		"bad psm":         "tesseract:\n  psm: 99\n",
		"bad log format":  "log:\n  format: xml\n",
		"threshold range": "threshold: 300\n",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read error, got %v", err)
	}
}
