package detection

import (
	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// Defaults for the neighbor-deviation detector.
const (
	DefaultDensityMultiplier  = 1.1
	DefaultDeviationThreshold = 90.0
	DefaultNeighborOffset     = 8
)

// NeighborDeviationDetector flags bright sites that drop off sharply toward a
// neighbor a fixed distance to the right ("ahead") or below.
//
// A site qualifies when its luminance exceeds DensityMultiplier times the
// frame's density baseline. Its score is
//
//	deviation = max(cur - ahead, cur - below)
//
// using only the neighbors that lie inside the buffer. Sites with neither
// neighbor in bounds are skipped. A site near the right or bottom edge with
// one neighbor out of bounds is not skipped: it is scored on the other
// neighbor alone. A candidate is recorded when the deviation
// exceeds Threshold.
type NeighborDeviationDetector struct {
	// DensityMultiplier scales the baseline into the candidate threshold.
	DensityMultiplier float64

	// Threshold is the minimum deviation, in luminance units, to record.
	Threshold float64

	// Offset is the neighbor distance in pixels.
	Offset int
}

// NewNeighborDeviationDetector returns a detector with the default parameters.
func NewNeighborDeviationDetector() *NeighborDeviationDetector {
	return &NeighborDeviationDetector{
		DensityMultiplier: DefaultDensityMultiplier,
		Threshold:         DefaultDeviationThreshold,
		Offset:            DefaultNeighborOffset,
	}
}

// Strategy implements Detector.
func (d *NeighborDeviationDetector) Strategy() Strategy {
	return NeighborDeviation
}

// Qualifies implements Detector.
func (d *NeighborDeviationDetector) Qualifies(lum, baseline float64) bool {
	return lum > baseline*d.DensityMultiplier
}

// Score implements Detector.
func (d *NeighborDeviationDetector) Score(buf *dsp.PixelBuffer, x, y int) (float64, bool) {
	if !buf.InBounds(x, y) {
		return 0, false
	}
	cur := buf.Luminance(x, y)

	var deviation float64
	ok := false
	if buf.InBounds(x+d.Offset, y) {
		deviation = cur - buf.Luminance(x+d.Offset, y)
		ok = true
	}
	if buf.InBounds(x, y+d.Offset) {
		below := cur - buf.Luminance(x, y+d.Offset)
		if !ok || below > deviation {
			deviation = below
		}
		ok = true
	}
	return deviation, ok
}

// Scan implements Detector. Every site above the threshold is returned.
func (d *NeighborDeviationDetector) Scan(buf *dsp.PixelBuffer, win dsp.ScanWindow, baseline float64) []Candidate {
	var candidates []Candidate
	win.Each(func(x, y int) {
		if !buf.InBounds(x, y) || !d.Qualifies(buf.Luminance(x, y), baseline) {
			return
		}
		score, ok := d.Score(buf, x, y)
		if ok && score > d.Threshold {
			candidates = append(candidates, Candidate{X: x, Y: y, Score: score})
		}
	})
	Rank(candidates)
	return candidates
}

// Merge implements Detector.
func (d *NeighborDeviationDetector) Merge(parts [][]Candidate) []Candidate {
	var merged []Candidate
	for _, p := range parts {
		merged = append(merged, p...)
	}
	Rank(merged)
	return merged
}
