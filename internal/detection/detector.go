package detection

import (
	"fmt"
	"sort"

	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// Strategy names a detector implementation.
type Strategy string

const (
	// NeighborDeviation compares each bright site to fixed-offset neighbors.
	NeighborDeviation Strategy = "neighbor_deviation"

	// ConvolutionKernel scores each bright site with a 3x3 high-pass kernel.
	ConvolutionKernel Strategy = "convolution_kernel"
)

// ParseStrategy converts a configuration string into a Strategy.
// The empty string selects NeighborDeviation.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", NeighborDeviation:
		return NeighborDeviation, nil
	case ConvolutionKernel:
		return ConvolutionKernel, nil
	default:
		return "", fmt.Errorf("%w: unknown detector strategy %q", dsp.ErrInvalidConfiguration, s)
	}
}

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Candidate is a site flagged by a detector, with its anomaly score.
type Candidate struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Score float64 `json:"score"`
}

// Point returns the candidate's coordinate.
func (c Candidate) Point() Point {
	return Point{X: c.X, Y: c.Y}
}

// Detector scores local intensity discontinuities in an enhanced buffer.
//
// Implementations must never read outside the buffer: Score reports ok=false
// when the neighborhood of (x, y) would leave it, and Scan skips such sites.
type Detector interface {
	// Strategy identifies the implementation.
	Strategy() Strategy

	// Qualifies reports whether a site with luminance lum is dense enough to
	// be scored, given the density baseline of the frame.
	Qualifies(lum, baseline float64) bool

	// Score returns how anomalous the neighborhood of (x, y) is.
	Score(buf *dsp.PixelBuffer, x, y int) (score float64, ok bool)

	// Scan visits every site of win and returns candidates ordered by
	// descending score. Sites with equal scores keep scan order.
	Scan(buf *dsp.PixelBuffer, win dsp.ScanWindow, baseline float64) []Candidate

	// Merge combines Scan results of consecutive row partitions, given in
	// row order, into the result a single Scan over the union would return.
	Merge(parts [][]Candidate) []Candidate
}

// Rank sorts candidates by descending score. The sort is stable, so equal
// scores keep the order in which they were recorded.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// Top returns the highest-ranked candidate, or nil if there is none.
func Top(candidates []Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}
	top := candidates[0]
	return &top
}

// Scan runs d over win using up to workers goroutines.
//
// The window's sampled rows are split into contiguous partitions, each
// partition is scanned independently, and the partial results are merged in
// row order. The result is identical to d.Scan(buf, win, baseline).
func Scan(d Detector, buf *dsp.PixelBuffer, win dsp.ScanWindow, baseline float64, workers int) []Candidate {
	rows := win.RowCount()
	if workers <= 1 || rows <= 1 {
		return d.Scan(buf, win, baseline)
	}

	parts := make([][]Candidate, dsp.PartCount(rows, workers))
	// The callback never fails, so the error is always nil.
	_ = dsp.ForEachRows(rows, workers, func(part, start, end int) error {
		parts[part] = d.Scan(buf, win.Rows(start, end), baseline)
		return nil
	})
	return d.Merge(parts)
}
