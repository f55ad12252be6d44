package tesseract

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/scanocr/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestSplitLanguages(t *testing.T) {
	got := SplitLanguages(" eng+ind ++ ")
	if len(got) != 2 || got[0] != "eng" || got[1] != "ind" {
		t.Fatalf("SplitLanguages() = %v", got)
	}
	if got := SplitLanguages(""); len(got) != 0 {
		t.Fatalf("expected no languages, got %v", got)
	}
}

func TestCreateEngineRejectsMissingTrainedData(t *testing.T) {
	f := New()
	f.availableLangs = func() ([]string, error) { return []string{"eng", "osd"}, nil }
	events := make(chan ocr.ProgressEvent, 8)
	_, err := f.CreateEngine(context.Background(), ocr.EngineRequest{Language: "eng+ind"}, events)
	if err == nil || !strings.Contains(err.Error(), "ind") {
		t.Fatalf("expected missing trained data error, got %v", err)
	}
	if ev := <-events; ev.Status != StatusInitializing {
		t.Fatalf("first event = %+v", ev)
	}
}

func TestCreateEngineListFailure(t *testing.T) {
	f := New()
	f.availableLangs = func() ([]string, error) { return nil, errors.New("no tessdata dir") }
	_, err := f.CreateEngine(context.Background(), ocr.EngineRequest{Language: "eng"}, nil)
	if err == nil || !strings.Contains(err.Error(), "no tessdata dir") {
		t.Fatalf("expected list failure, got %v", err)
	}
}

func TestWordsFromBoxes(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 10, 50, 30), Word: "Invoice", Confidence: 91},
		{Box: image.Rect(60, 10, 60, 30), Word: "|", Confidence: 20},
		{Box: image.Rect(70, 10, 90, 10), Word: "-", Confidence: 20},
		{Box: image.Rect(100, 10, 140, 30), Word: "  ", Confidence: 95},
		{Box: image.Rect(150, 10, 190, 30), Word: "total", Confidence: 64},
	}
	got := wordsFromBoxes(boxes)
	if len(got) != 2 || got[0].Text != "Invoice" || got[1].Text != "total" {
		t.Fatalf("wordsFromBoxes() = %+v", got)
	}
	if b := got[0].BBox; b.Width() != 40 || b.Height() != 20 || b.Rect() != image.Rect(10, 10, 50, 30) {
		t.Fatalf("unexpected box %+v", b)
	}
	if got[1].Confidence != 64 {
		t.Fatalf("confidence = %v", got[1].Confidence)
	}
}

func TestTesseractJobRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewNRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString("Hello OCR")

	updates := make(chan ocr.JobStatus, 64)
	job := ocr.NewJob(New(), ocr.WithProgress(updates), ocr.WithEngineOptions(ocr.WithDPI(300)))
	res, err := job.Start(context.Background(), img, "eng")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got := strings.ToLower(res.Text)
	if !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", res.Text)
	}
	if len(res.Words) == 0 {
		t.Fatalf("expected word boxes")
	}
	for _, w := range res.Words {
		if !w.BBox.Rect().In(img.Bounds()) {
			t.Fatalf("word box %v outside buffer", w.BBox)
		}
	}
	if st := job.Status(); st.State != ocr.JobStateSucceeded {
		t.Fatalf("unexpected status %+v", st)
	}
}
