// Package service runs radiograph analyses for the MCP server, the HTTP API
// and the CLI. It resolves per-request settings against the configured
// engine defaults, loads and prepares captures, and renders results.
package service

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/xray-tools-mcp/internal/detection"
	"github.com/ironsheep/xray-tools-mcp/internal/engine"
	"github.com/ironsheep/xray-tools-mcp/internal/imaging"
)

// Overrides are per-request adjustments to the engine configuration.
// Zero values keep the configured defaults.
type Overrides struct {
	// Strategy switches to another detector preset.
	Strategy string

	// ContrastLevel replaces the contrast level when non-nil.
	ContrastLevel *int
}

// Analysis is the result of analyzing one capture.
type Analysis struct {
	Source string `json:"source,omitempty"`

	// Width and Height are the analyzed dimensions, after Prepare.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Downscaled reports whether the capture was resized before analysis.
	Downscaled bool `json:"downscaled,omitempty"`

	Report     detection.Report      `json:"report"`
	Annotation *detection.Annotation `json:"annotation,omitempty"`

	// Enhanced is the contrast-stretched grayscale frame.
	Enhanced *image.RGBA `json:"-"`
}

// Service is safe for concurrent use.
type Service struct {
	cache        *imaging.ImageCache
	base         engine.Config
	maxDimension int
	log          *logrus.Entry
	now          func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the entry used for request and engine logging.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxDimension bounds the longer side of analyzed frames. 0 disables
// resizing.
func WithMaxDimension(n int) Option {
	return func(s *Service) { s.maxDimension = n }
}

// New creates a service analyzing with base as the default configuration.
func New(cache *imaging.ImageCache, base engine.Config, opts ...Option) (*Service, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{
		cache: cache,
		base:  base,
		log:   logrus.NewEntry(quiet),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Cache returns the image cache.
func (s *Service) Cache() *imaging.ImageCache {
	return s.cache
}

// Unload drops source from the image cache and reports whether it was
// cached.
func (s *Service) Unload(source string) bool {
	evicted := s.cache.Evict(source)
	s.log.WithFields(logrus.Fields{"source": source, "evicted": evicted}).Debug("capture unloaded")
	return evicted
}

// Config resolves o against the default configuration.
//
// Selecting a different strategy switches to that strategy's preset, keeping
// the configured contrast level, worker count and top-K.
func (s *Service) Config(o Overrides) (engine.Config, error) {
	cfg := s.base
	if o.Strategy != "" {
		st, err := detection.ParseStrategy(o.Strategy)
		if err != nil {
			return engine.Config{}, err
		}
		if st != cfg.Strategy {
			preset := engine.PresetFor(st)
			preset.ContrastLevel = cfg.ContrastLevel
			preset.Workers = cfg.Workers
			preset.TopK = cfg.TopK
			cfg = preset
		}
	}
	if o.ContrastLevel != nil {
		cfg.ContrastLevel = *o.ContrastLevel
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func (s *Service) engine(o Overrides) (*engine.Engine, error) {
	cfg, err := s.Config(o)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, engine.WithClock(s.now), engine.WithLogger(s.log.WithField("component", "engine")))
}

// Info loads source and describes it.
func (s *Service) Info(ctx context.Context, source string) (*imaging.RadiographInfo, error) {
	return imaging.LoadRadiographInfo(ctx, s.cache, source)
}

// AnalyzeSource loads source through the cache and analyzes it.
func (s *Service) AnalyzeSource(ctx context.Context, source string, o Overrides) (*Analysis, error) {
	img, err := s.cache.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	a, err := s.AnalyzeImage(img, o)
	if err != nil {
		return nil, err
	}
	a.Source = source
	return a, nil
}

// AnalyzeReader decodes an uploaded capture and analyzes it. The capture is
// not cached.
func (s *Service) AnalyzeReader(r io.Reader, o Overrides) (*Analysis, error) {
	img, _, err := imaging.Decode(r)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeImage(img, o)
}

// AnalyzeImage prepares img, then enhances and analyzes a copy of it.
func (s *Service) AnalyzeImage(img image.Image, o Overrides) (*Analysis, error) {
	e, err := s.engine(o)
	if err != nil {
		return nil, err
	}

	prepared := imaging.Prepare(img, s.maxDimension)
	buf := imaging.ToPixelBuffer(prepared)
	res, err := e.Process(buf)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"width":      buf.Width,
		"height":     buf.Height,
		"strategy":   res.Report.Strategy,
		"status":     res.Report.Status,
		"confidence": res.Report.ConfidencePercent,
	}).Info("radiograph analyzed")

	return &Analysis{
		Width:      buf.Width,
		Height:     buf.Height,
		Downscaled: prepared != img,
		Report:     res.Report,
		Annotation: res.Annotation,
		Enhanced:   imaging.FromPixelBuffer(buf),
	}, nil
}

// EnhanceSource returns the enhanced frame of source without analyzing it.
func (s *Service) EnhanceSource(ctx context.Context, source string, o Overrides) (*image.RGBA, error) {
	img, err := s.cache.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	e, err := s.engine(o)
	if err != nil {
		return nil, err
	}
	buf := imaging.ToPixelBuffer(imaging.Prepare(img, s.maxDimension))
	if err := e.Enhance(buf); err != nil {
		return nil, err
	}
	return imaging.FromPixelBuffer(buf), nil
}

// Render draws the analysis onto its enhanced frame. With annotate unset
// only the enhanced frame is returned.
func (s *Service) Render(a *Analysis, annotate bool) (*image.RGBA, error) {
	if !annotate {
		return a.Enhanced, nil
	}
	label := fmt.Sprintf("%s %.1f%%", a.Report.Status, a.Report.ConfidencePercent)
	return imaging.Render(a.Enhanced, a.Annotation, label)
}

// Zoom crops the enhanced frame around candidate index of the analysis
// (0 is the top candidate).
func (s *Service) Zoom(a *Analysis, index, radius int, scale float64) (*imaging.ZoomResult, error) {
	var p detection.Point
	switch {
	case index >= 0 && index < len(a.Report.Candidates):
		p = a.Report.Candidates[index].Point()
	case index == 0 && a.Report.Coordinate != nil:
		p = *a.Report.Coordinate
	default:
		return nil, fmt.Errorf("no candidate %d (analysis has %d)", index, len(a.Report.Candidates))
	}
	return imaging.CropAround(a.Enhanced, p.X, p.Y, radius, scale)
}
