package engine

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/xray-tools-mcp/internal/detection"
	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// Result is the outcome of processing one frame.
type Result struct {
	Report     detection.Report      `json:"report"`
	Annotation *detection.Annotation `json:"annotation,omitempty"`
}

// Engine runs the enhancement and detection pipeline over pixel buffers.
//
// An Engine holds no per-frame state and is safe for concurrent use.
type Engine struct {
	cfg      Config
	detector detection.Detector
	policy   detection.Policy
	style    detection.Style
	now      func() time.Time
	log      *logrus.Entry
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the entry used for per-frame debug logging.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New validates cfg and builds an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Strategy == "" {
		cfg.Strategy = detection.NeighborDeviation
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Engine{
		cfg:      cfg,
		detector: cfg.Detector(),
		policy:   cfg.Policy(),
		style:    cfg.Style(),
		now:      time.Now,
		log:      logrus.NewEntry(quiet),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Enhance normalizes buf to grayscale and applies the contrast stretch, in
// place. The buffer is untouched if it is malformed.
func (e *Engine) Enhance(buf *dsp.PixelBuffer) error {
	if err := dsp.NormalizeParallel(buf, e.cfg.Workers); err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	if err := dsp.EnhanceParallel(buf, e.cfg.ContrastLevel, e.cfg.Workers); err != nil {
		return fmt.Errorf("enhance: %w", err)
	}
	return nil
}

// Process enhances buf in place and analyzes it.
//
// A frame whose sampling window is empty is reported Healthy with zero
// confidence and SignalSkipped set. Malformed buffers are rejected before
// any byte is written.
func (e *Engine) Process(buf *dsp.PixelBuffer) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if err := e.Enhance(buf); err != nil {
		return nil, err
	}
	return e.Analyze(buf)
}

// Analyze runs sampling, detection, classification and annotation on an
// already enhanced buffer. The buffer is only read.
func (e *Engine) Analyze(buf *dsp.PixelBuffer) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	log := e.log.WithFields(logrus.Fields{
		"width":    buf.Width,
		"height":   buf.Height,
		"strategy": e.cfg.Strategy,
	})

	coarse, err := dsp.NewScanWindow(buf.Width, buf.Height, e.cfg.MarginFraction, e.cfg.CoarseStep)
	if err != nil {
		return nil, err
	}
	baseline, err := dsp.SampleDensity(buf, coarse)
	if errors.Is(err, dsp.ErrInsufficientSignal) {
		report := detection.Skipped(e.now())
		report.Strategy = e.cfg.Strategy
		log.Debug("insufficient signal, detection skipped")
		return &Result{Report: report}, nil
	}
	if err != nil {
		return nil, err
	}

	fine, err := dsp.NewScanWindow(buf.Width, buf.Height, e.cfg.MarginFraction, e.cfg.FineStep)
	if err != nil {
		return nil, err
	}
	candidates := detection.Scan(e.detector, buf, fine, baseline, e.cfg.Workers)

	report := e.policy.Classify(detection.Top(candidates), e.now())
	report.Strategy = e.cfg.Strategy
	report.Baseline = baseline
	if k := e.cfg.TopK; k > 0 && len(candidates) > 0 {
		if k > len(candidates) {
			k = len(candidates)
		}
		report.Candidates = append([]detection.Candidate(nil), candidates[:k]...)
	}

	log.WithFields(logrus.Fields{
		"baseline":   baseline,
		"candidates": len(candidates),
		"status":     report.Status,
		"confidence": report.ConfidencePercent,
	}).Debug("frame analyzed")

	return &Result{Report: report, Annotation: e.style.Emit(report)}, nil
}
