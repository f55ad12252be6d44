package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wudi/scanocr/config"
	"github.com/wudi/scanocr/observability"
	"github.com/wudi/scanocr/ocr"
	"github.com/wudi/scanocr/ocr/tesseract"
	"github.com/wudi/scanocr/prepare"
	"github.com/wudi/scanocr/report"
	"github.com/wudi/scanocr/session"
)

type options struct {
	imagePath   string
	configPath  string
	overlayPath string
	htmlPath    string
	debug       bool

	lang          string
	maxDimension  int
	grayscale     bool
	binarize      bool
	threshold     uint
	interp        string
	minConfidence float64
	labels        bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scanocr: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "scanocr: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: scanocr [flags] <image>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.configPath, "config", "", "YAML config file")
	flag.StringVar(&opts.overlayPath, "overlay", "", "Write the working buffer with word boxes to this PNG file")
	flag.StringVar(&opts.htmlPath, "html", "", "Write an HTML summary to this file")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&opts.lang, "lang", "eng", "Tesseract language code, e.g. eng or eng+ind")
	flag.IntVar(&opts.maxDimension, "max", 1200, fmt.Sprintf("Longest edge in pixels before OCR, usually one of %s (0 keeps the original size)", presetList()))
	flag.BoolVar(&opts.grayscale, "gray", false, "Convert to grayscale")
	flag.BoolVar(&opts.binarize, "binarize", false, "Threshold to black and white")
	flag.UintVar(&opts.threshold, "threshold", 128, "Binarization threshold (1-255)")
	flag.StringVar(&opts.interp, "interp", prepare.InterpApproxBiLinear, "Resampler: "+strings.Join(prepare.Interpolators(), ", "))
	flag.Float64Var(&opts.minConfidence, "min-confidence", 50, "Only box words above this confidence")
	flag.BoolVar(&opts.labels, "labels", false, "Print confidence above each box")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing image path")
	}
	if opts.threshold < 1 || opts.threshold > 255 {
		return options{}, fmt.Errorf("threshold out of range: %d", opts.threshold)
	}
	opts.imagePath = flag.Arg(0)
	return opts, nil
}

func presetList() string {
	parts := make([]string, 0, len(prepare.MaxDimensionPresets))
	for _, p := range prepare.MaxDimensionPresets {
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, ", ")
}

// loadConfig reads the config file, then applies flags the user set
// explicitly on top of it.
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if explicit["lang"] {
		cfg.Language = opts.lang
	}
	if explicit["max"] {
		cfg.MaxDimension = opts.maxDimension
	}
	if explicit["gray"] {
		cfg.Grayscale = opts.grayscale
	}
	if explicit["binarize"] {
		cfg.Binarize = opts.binarize
	}
	if explicit["threshold"] {
		cfg.Threshold = uint8(opts.threshold)
	}
	if explicit["interp"] {
		cfg.Interpolator = opts.interp
	}
	if explicit["min-confidence"] {
		cfg.ConfidenceThreshold = opts.minConfidence
	}
	if explicit["labels"] {
		cfg.Labels = opts.labels
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func initLogger(c config.Log) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	if c.Level != "" {
		l, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	logger.SetLevel(level)
	if c.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger, nil
}

// printProgress writes a status line for every update on ch until stop is
// closed, then flushes whatever is still buffered so the final state is
// always printed.
func printProgress(w io.Writer, ch <-chan ocr.JobStatus, stop <-chan struct{}) {
	for {
		select {
		case st := <-ch:
			fmt.Fprintln(w, report.StatusLine(st, true))
		case <-stop:
			for {
				select {
				case st := <-ch:
					fmt.Fprintln(w, report.StatusLine(st, true))
				default:
					return
				}
			}
		}
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	base, err := initLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger := observability.NewLogrus(base)

	s := session.New(tesseract.New(), cfg.Session(logger))
	if err := s.LoadFile(opts.imagePath); err != nil {
		return err
	}

	if src := s.Source(); src != nil {
		fmt.Fprintf(os.Stderr, "%s (%dx%d %s)\n", report.StatusLine(s.Status(), true), src.Width, src.Height, src.Format)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(os.Stderr, s.Progress(), stop)
	}()

	res, err := s.RunRecognition(ctx, cfg.Language)
	close(stop)
	<-done
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, res.Text)
	fmt.Fprintln(stdout, report.ConfidenceLabel(res))

	if opts.overlayPath != "" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, s.Buffer()); err != nil {
			return fmt.Errorf("encode overlay: %w", err)
		}
		if err := os.WriteFile(opts.overlayPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write overlay: %w", err)
		}
	}
	if opts.htmlPath != "" {
		var buf bytes.Buffer
		if err := report.RenderHTML(&buf, res, cfg.ConfidenceThreshold); err != nil {
			return err
		}
		if err := os.WriteFile(opts.htmlPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
