package engine

import (
	"fmt"
	"math"

	"github.com/ironsheep/xray-tools-mcp/internal/detection"
	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// Margin fractions of the two presets.
const (
	DeviationMargin   = 0.12
	ConvolutionMargin = 0.15
)

// DefaultTopK is the number of candidates surfaced in a report.
const DefaultTopK = 5

// Config holds every tunable of the pipeline.
type Config struct {
	// Strategy selects the detector.
	Strategy detection.Strategy `json:"strategy"`

	// ContrastLevel is the contrast stretch, -255 < c < 259.
	ContrastLevel int `json:"contrast_level"`

	// MarginFraction is excluded on each side of the frame, in [0, 0.5).
	MarginFraction float64 `json:"margin_fraction"`

	// CoarseStep is the density sampling step in pixels.
	CoarseStep int `json:"coarse_step"`

	// FineStep is the detection scan step in pixels.
	FineStep int `json:"fine_step"`

	// BoneDensityMultiplier scales the baseline into the neighbor
	// detector's site threshold.
	BoneDensityMultiplier float64 `json:"bone_density_multiplier"`

	// BoneDensityThreshold is the convolution detector's flat site threshold.
	BoneDensityThreshold float64 `json:"bone_density_threshold"`

	// DeviationThreshold is the minimum neighbor deviation recorded.
	DeviationThreshold float64 `json:"deviation_threshold"`

	// NeighborOffset is the neighbor distance in pixels.
	NeighborOffset int `json:"neighbor_offset"`

	// ConfidenceCriticalCutoff is the confidence above which a frame is
	// Critical.
	ConfidenceCriticalCutoff float64 `json:"confidence_critical_cutoff"`

	// ConfidenceSuspiciousCutoff is the confidence above which a frame with
	// a candidate is Suspicious. Only the neighbor-deviation policy has a
	// Suspicious band.
	ConfidenceSuspiciousCutoff float64 `json:"confidence_suspicious_cutoff"`

	// TopK is the number of ranked candidates copied into the report.
	TopK int `json:"top_k"`

	// Workers partitions the stages by rows when greater than 1.
	Workers int `json:"workers"`
}

// NeighborDeviationPreset returns the configuration of the neighbor-deviation
// pipeline.
func NeighborDeviationPreset() Config {
	return Config{
		Strategy:                   detection.NeighborDeviation,
		ContrastLevel:              dsp.DefaultContrastLevel,
		MarginFraction:             DeviationMargin,
		CoarseStep:                 dsp.DefaultCoarseStep,
		FineStep:                   dsp.DefaultFineStep,
		BoneDensityMultiplier:      detection.DefaultDensityMultiplier,
		BoneDensityThreshold:       detection.DefaultBoneThreshold,
		DeviationThreshold:         detection.DefaultDeviationThreshold,
		NeighborOffset:             detection.DefaultNeighborOffset,
		ConfidenceCriticalCutoff:   detection.DeviationPolicy().CriticalCutoff,
		ConfidenceSuspiciousCutoff: detection.DeviationPolicy().SuspiciousCutoff,
		TopK:                       DefaultTopK,
		Workers:                    1,
	}
}

// ConvolutionKernelPreset returns the configuration of the convolution
// pipeline.
func ConvolutionKernelPreset() Config {
	cfg := NeighborDeviationPreset()
	cfg.Strategy = detection.ConvolutionKernel
	cfg.MarginFraction = ConvolutionMargin
	cfg.ConfidenceCriticalCutoff = detection.StressPolicy().CriticalCutoff
	cfg.ConfidenceSuspiciousCutoff = detection.StressPolicy().SuspiciousCutoff
	return cfg
}

// DefaultConfig returns the neighbor-deviation preset.
func DefaultConfig() Config {
	return NeighborDeviationPreset()
}

// PresetFor returns the preset of a strategy.
func PresetFor(s detection.Strategy) Config {
	if s == detection.ConvolutionKernel {
		return ConvolutionKernelPreset()
	}
	return NeighborDeviationPreset()
}

// Validate rejects configurations that would make a stage undefined.
// All errors wrap dsp.ErrInvalidConfiguration.
func (c Config) Validate() error {
	if _, err := detection.ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if err := dsp.ValidateContrastLevel(c.ContrastLevel); err != nil {
		return err
	}
	if err := dsp.ValidateMargin(c.MarginFraction); err != nil {
		return err
	}
	if c.CoarseStep <= 0 || c.FineStep <= 0 {
		return invalid("steps must be > 0 (got coarse=%d, fine=%d)", c.CoarseStep, c.FineStep)
	}
	if c.NeighborOffset <= 0 {
		return invalid("neighbor_offset must be > 0 (got %d)", c.NeighborOffset)
	}
	for name, v := range map[string]float64{
		"bone_density_multiplier": c.BoneDensityMultiplier,
		"bone_density_threshold":  c.BoneDensityThreshold,
		"deviation_threshold":     c.DeviationThreshold,
	} {
		if math.IsNaN(v) || v < 0 {
			return invalid("%s must be >= 0 (got %v)", name, v)
		}
	}
	for name, v := range map[string]float64{
		"confidence_critical_cutoff":   c.ConfidenceCriticalCutoff,
		"confidence_suspicious_cutoff": c.ConfidenceSuspiciousCutoff,
	} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return invalid("%s must be in [0, 100] (got %v)", name, v)
		}
	}
	if c.TopK < 0 {
		return invalid("top_k must be >= 0 (got %d)", c.TopK)
	}
	if c.Workers < 0 {
		return invalid("workers must be >= 0 (got %d)", c.Workers)
	}
	return nil
}

// Detector builds the detector the configuration selects.
func (c Config) Detector() detection.Detector {
	if c.Strategy == detection.ConvolutionKernel {
		return &detection.ConvolutionKernelDetector{
			Threshold: c.BoneDensityThreshold,
			Kernel:    detection.HighPassKernel,
		}
	}
	return &detection.NeighborDeviationDetector{
		DensityMultiplier: c.BoneDensityMultiplier,
		Threshold:         c.DeviationThreshold,
		Offset:            c.NeighborOffset,
	}
}

// Policy returns the strategy's classification policy with the configured
// cutoffs.
func (c Config) Policy() detection.Policy {
	p := detection.PolicyFor(c.Strategy)
	p.CriticalCutoff = c.ConfidenceCriticalCutoff
	p.SuspiciousCutoff = c.ConfidenceSuspiciousCutoff
	return p
}

// Style returns the annotation style paired with the strategy.
func (c Config) Style() detection.Style {
	return detection.StyleFor(c.Strategy)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", dsp.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
