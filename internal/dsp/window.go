package dsp

import (
	"fmt"
	"math"
)

// Default sampling steps in pixels.
const (
	DefaultCoarseStep = 5
	DefaultFineStep   = 4
)

// MaxMarginFraction is the exclusive upper bound for a margin; at 0.5 the
// window would have no interior left.
const MaxMarginFraction = 0.5

// ScanWindow is the interior region visited by the sampler and detectors.
//
// Sites are (x, y) with x = XStart, XStart+Step, ... < XEnd and
// y = YStart, YStart+Step, ... < YEnd, visited row-major.
type ScanWindow struct {
	XStart int `json:"x_start"`
	XEnd   int `json:"x_end"` // exclusive
	YStart int `json:"y_start"`
	YEnd   int `json:"y_end"` // exclusive
	Step   int `json:"step"`
}

// NewScanWindow computes the window for a width x height buffer that excludes
// the given margin fraction on each side.
//
// The bounds follow the loop form "for x := floor(w*m); x < w*(1-m)", so
// XStart = floor(w*m) and XEnd = ceil(w*(1-m)), clamped to [0, w].
//
// # Errors
//
// Returns an error wrapping ErrInvalidConfiguration if step <= 0 or the
// margin is outside [0, MaxMarginFraction).
func NewScanWindow(width, height int, margin float64, step int) (ScanWindow, error) {
	if step <= 0 {
		return ScanWindow{}, fmt.Errorf("%w: step must be > 0 (got %d)", ErrInvalidConfiguration, step)
	}
	if err := ValidateMargin(margin); err != nil {
		return ScanWindow{}, err
	}
	xs, xe := span(width, margin)
	ys, ye := span(height, margin)
	return ScanWindow{XStart: xs, XEnd: xe, YStart: ys, YEnd: ye, Step: step}, nil
}

// ValidateMargin checks that m is a usable margin fraction.
func ValidateMargin(m float64) error {
	if math.IsNaN(m) || m < 0 || m >= MaxMarginFraction {
		return fmt.Errorf("%w: margin fraction %v outside [0, %v)", ErrInvalidConfiguration, m, MaxMarginFraction)
	}
	return nil
}

func span(n int, margin float64) (int, int) {
	if n <= 0 {
		return 0, 0
	}
	start := int(math.Floor(float64(n) * margin))
	// The epsilon absorbs representation noise in 1-margin (e.g. 1-0.15).
	end := int(math.Ceil(float64(n)*(1-margin) - 1e-9))
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}

// Empty reports whether the window contains no sites.
func (w ScanWindow) Empty() bool {
	return w.XStart >= w.XEnd || w.YStart >= w.YEnd
}

// Columns returns the number of sites per row.
func (w ScanWindow) Columns() int {
	if w.Empty() {
		return 0
	}
	return (w.XEnd - w.XStart + w.Step - 1) / w.Step
}

// RowCount returns the number of sampled rows.
func (w ScanWindow) RowCount() int {
	if w.Empty() {
		return 0
	}
	return (w.YEnd - w.YStart + w.Step - 1) / w.Step
}

// SiteCount returns the total number of sites in the window.
func (w ScanWindow) SiteCount() int {
	return w.Columns() * w.RowCount()
}

// Rows returns the sub-window holding sampled rows [first, last) of w.
// The sub-windows of consecutive row ranges visit, in order, exactly the
// sites of w.
func (w ScanWindow) Rows(first, last int) ScanWindow {
	sub := w
	sub.YStart = w.YStart + first*w.Step
	end := w.YStart + last*w.Step
	if end < sub.YEnd {
		sub.YEnd = end
	}
	if sub.YStart > sub.YEnd {
		sub.YStart = sub.YEnd
	}
	return sub
}

// Each calls fn for every site in row-major order.
func (w ScanWindow) Each(fn func(x, y int)) {
	if w.Empty() || w.Step <= 0 {
		return
	}
	for y := w.YStart; y < w.YEnd; y += w.Step {
		for x := w.XStart; x < w.XEnd; x += w.Step {
			fn(x, y)
		}
	}
}
