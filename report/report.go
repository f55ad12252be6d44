// Package report formats job status and results for presentation layers.
// Keeping the strings here leaves the ocr and session packages free of any
// user-facing wording.
package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/wudi/scanocr/ocr"
	"github.com/wudi/scanocr/overlay"
)

// StatusLine renders st as a one-line status message. hasImage selects the
// idle message.
func StatusLine(st ocr.JobStatus, hasImage bool) string {
	switch st.State {
	case ocr.JobStateInitializing:
		if st.Message == "" {
			return "Initializing OCR engine (may take a while the first time)..."
		}
		return "Status: " + st.Message
	case ocr.JobStateRecognizing:
		if st.Message == ocr.StatusRecognizing {
			return fmt.Sprintf("Analyzing text: %d%%", int(math.Round(st.Progress)))
		}
		return "Status: " + st.Message
	case ocr.JobStateSucceeded:
		return "Done!"
	case ocr.JobStateFailed:
		return "Error: " + st.Message
	default:
		if hasImage {
			return "Image loaded. Ready to process."
		}
		return "Waiting for image..."
	}
}

// ConfidenceLabel renders the rounded overall confidence.
func ConfidenceLabel(res ocr.Result) string {
	return fmt.Sprintf("Accuracy: %d%%", res.ConfidencePercent())
}

// Markdown summarizes res. Words above threshold are the ones that get an
// overlay box.
func Markdown(res ocr.Result, threshold float64) string {
	var b strings.Builder
	b.WriteString("## OCR result\n\n")
	if res.Language != "" {
		fmt.Fprintf(&b, "- Language: `%s`\n", res.Language)
	}
	fmt.Fprintf(&b, "- %s\n", ConfidenceLabel(res))
	fmt.Fprintf(&b, "- Words: %d (%d above %g%% confidence)\n",
		len(res.Words), len(overlay.Visible(res.Words, threshold)), threshold)
	if res.Duration > 0 {
		fmt.Fprintf(&b, "- Time: %s\n", res.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n")

	text := strings.TrimRight(res.Text, "\n")
	if text == "" {
		b.WriteString("_No text recognized._\n")
		return b.String()
	}
	fence := codeFence(text)
	fmt.Fprintf(&b, "%stext\n%s\n%s\n", fence, text, fence)
	return b.String()
}

// RenderHTML writes the Markdown summary of res as HTML.
func RenderHTML(w io.Writer, res ocr.Result, threshold float64) error {
	var out bytes.Buffer
	if err := goldmark.New().Convert([]byte(Markdown(res, threshold)), &out); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := out.WriteTo(w)
	return err
}

// codeFence returns a backtick fence longer than any run inside text.
func codeFence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}
