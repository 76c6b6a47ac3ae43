package detection

import (
	"fmt"
	"math"
	"time"
)

// Status is the diagnostic verdict for a frame.
type Status string

const (
	Healthy    Status = "Healthy"
	Suspicious Status = "Suspicious"
	Critical   Status = "Critical"
)

// Report message templates.
const (
	criticalMessage     = "Structural discontinuity detected at [%d, %d]. Confidence %.1f%%."
	suspiciousMessage   = "Possible structural irregularity at [%d, %d]. Confidence %.1f%%. Manual review recommended."
	healthyMessage      = "Analysis complete. Bone continuity appears intact. Confidence %.1f%%."
	insufficientMessage = "Insufficient signal for analysis. Confidence %.1f%%."
)

// Report is the diagnostic result for one frame.
type Report struct {
	// Status is the verdict.
	Status Status `json:"status"`

	// ConfidencePercent is in [0, 100], derived from the top score.
	ConfidencePercent float64 `json:"confidence_percent"`

	// Message is a fixed template with the confidence and, for non-healthy
	// verdicts, the coordinate filled in.
	Message string `json:"message"`

	// Coordinate is the top candidate, if any candidate was found.
	Coordinate *Point `json:"coordinate,omitempty"`

	// Timestamp is the wall-clock time of classification.
	Timestamp time.Time `json:"timestamp"`

	// Strategy is the detector that produced the candidates.
	Strategy Strategy `json:"strategy,omitempty"`

	// Baseline is the density baseline the detector worked against.
	Baseline float64 `json:"baseline"`

	// Candidates holds the highest-ranked candidates, best first.
	Candidates []Candidate `json:"candidates,omitempty"`

	// SignalSkipped is set when the sampling window was empty and no
	// detection ran.
	SignalSkipped bool `json:"signal_skipped,omitempty"`
}

// Policy maps a top score onto a confidence percentage and a Status.
//
// The confidence is clamp(score/255*Scale, 0, Cap). A confidence strictly
// above CriticalCutoff is Critical. Otherwise, with SuspiciousBand set, a
// frame that has a candidate and a confidence strictly above
// SuspiciousCutoff is Suspicious. Everything else is Healthy.
type Policy struct {
	Scale            float64 `json:"scale"`
	Cap              float64 `json:"cap"`
	CriticalCutoff   float64 `json:"critical_cutoff"`
	SuspiciousCutoff float64 `json:"suspicious_cutoff"`
	SuspiciousBand   bool    `json:"suspicious_band"`
}

// DeviationPolicy is the policy paired with the neighbor-deviation detector.
func DeviationPolicy() Policy {
	return Policy{
		Scale:            180,
		Cap:              99,
		CriticalCutoff:   65,
		SuspiciousCutoff: 0,
		SuspiciousBand:   true,
	}
}

// StressPolicy is the policy paired with the convolution detector.
func StressPolicy() Policy {
	return Policy{
		Scale:          100,
		Cap:            100,
		CriticalCutoff: 45,
	}
}

// PolicyFor returns the policy paired with a strategy.
func PolicyFor(s Strategy) Policy {
	if s == ConvolutionKernel {
		return StressPolicy()
	}
	return DeviationPolicy()
}

// Confidence converts a raw score to a percentage.
func (p Policy) Confidence(score float64) float64 {
	c := score / 255 * p.Scale
	return math.Max(0, math.Min(p.Cap, c))
}

// Status returns the verdict for a confidence. hasCandidate reports whether
// the detector produced any candidate at all.
func (p Policy) Status(confidence float64, hasCandidate bool) Status {
	if !hasCandidate {
		return Healthy
	}
	if confidence > p.CriticalCutoff {
		return Critical
	}
	if p.SuspiciousBand && confidence > p.SuspiciousCutoff {
		return Suspicious
	}
	return Healthy
}

// Classify builds the report for the top candidate, which may be nil.
func (p Policy) Classify(top *Candidate, now time.Time) Report {
	r := Report{Status: Healthy, Timestamp: now}
	if top == nil {
		r.Message = fmt.Sprintf(healthyMessage, 0.0)
		return r
	}

	pt := top.Point()
	r.Coordinate = &pt
	r.ConfidencePercent = p.Confidence(top.Score)
	r.Status = p.Status(r.ConfidencePercent, true)

	switch r.Status {
	case Critical:
		r.Message = fmt.Sprintf(criticalMessage, pt.X, pt.Y, r.ConfidencePercent)
	case Suspicious:
		r.Message = fmt.Sprintf(suspiciousMessage, pt.X, pt.Y, r.ConfidencePercent)
	default:
		r.Message = fmt.Sprintf(healthyMessage, r.ConfidencePercent)
	}
	return r
}

// Skipped builds the Healthy report for a frame whose sampling window was
// empty.
func Skipped(now time.Time) Report {
	return Report{
		Status:        Healthy,
		Message:       fmt.Sprintf(insufficientMessage, 0.0),
		Timestamp:     now,
		SignalSkipped: true,
	}
}
