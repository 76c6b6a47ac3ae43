package dsp

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SampleDensity estimates the density baseline of an enhanced buffer.
//
// It collects the mean-of-RGB luminance at every site of win (normally a
// window at the coarse step) and returns the median. For an even number of
// samples the lower of the two middle values is returned; the two are never
// averaged, so the baseline is always an observed luminance.
//
// # Errors
//
//   - ErrInvalidBuffer if the buffer fails Validate
//   - ErrInsufficientSignal if the window holds no in-bounds sites
func SampleDensity(buf *PixelBuffer, win ScanWindow) (float64, error) {
	if err := buf.Validate(); err != nil {
		return 0, err
	}

	samples := make([]float64, 0, win.SiteCount())
	win.Each(func(x, y int) {
		if buf.InBounds(x, y) {
			samples = append(samples, buf.Luminance(x, y))
		}
	})
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: no sample sites in %dx%d buffer", ErrInsufficientSignal, buf.Width, buf.Height)
	}

	sort.Float64s(samples)
	// The empirical quantile at 0.5 is the lower middle element for even counts.
	return stat.Quantile(0.5, stat.Empirical, samples, nil), nil
}
