package detection

import (
	"math"

	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// DefaultBoneThreshold is the flat luminance a site must exceed to be scored
// by the convolution detector.
const DefaultBoneThreshold = 140.0

// HighPassKernel is the 3x3 Laplacian-style kernel used to score stress.
// Its weights sum to zero, so a uniform neighborhood scores 0.
var HighPassKernel = [3][3]float64{
	{-1, -1, -1},
	{-1, 8, -1},
	{-1, -1, -1},
}

// ConvolutionKernelDetector keeps the single site with the highest
// high-pass response among sites brighter than Threshold.
//
// The stress at (x, y) is |sum(kernel[i][j] * lum(x+j-1, y+i-1))|. All eight
// neighbors must be inside the buffer; sites at the edge are skipped. The
// running best is replaced only by a strictly greater stress, so the first
// maximal site in scan order wins and a stress of 0 is never recorded.
type ConvolutionKernelDetector struct {
	// Threshold is the minimum luminance of a scored site.
	Threshold float64

	// Kernel holds the convolution weights.
	Kernel [3][3]float64
}

// NewConvolutionKernelDetector returns a detector with the default threshold
// and HighPassKernel.
func NewConvolutionKernelDetector() *ConvolutionKernelDetector {
	return &ConvolutionKernelDetector{
		Threshold: DefaultBoneThreshold,
		Kernel:    HighPassKernel,
	}
}

// Strategy implements Detector.
func (d *ConvolutionKernelDetector) Strategy() Strategy {
	return ConvolutionKernel
}

// Qualifies implements Detector. The baseline is not used.
func (d *ConvolutionKernelDetector) Qualifies(lum, _ float64) bool {
	return lum > d.Threshold
}

// Score implements Detector.
func (d *ConvolutionKernelDetector) Score(buf *dsp.PixelBuffer, x, y int) (float64, bool) {
	if !buf.InBounds(x-1, y-1) || !buf.InBounds(x+1, y+1) {
		return 0, false
	}
	var sum float64
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			sum += buf.Luminance(x+kx, y+ky) * d.Kernel[ky+1][kx+1]
		}
	}
	return math.Abs(sum), true
}

// Scan implements Detector. At most one candidate is returned.
func (d *ConvolutionKernelDetector) Scan(buf *dsp.PixelBuffer, win dsp.ScanWindow, _ float64) []Candidate {
	var best Candidate
	found := false
	win.Each(func(x, y int) {
		if !buf.InBounds(x, y) || !d.Qualifies(buf.Luminance(x, y), 0) {
			return
		}
		stress, ok := d.Score(buf, x, y)
		if ok && stress > best.Score {
			best = Candidate{X: x, Y: y, Score: stress}
			found = true
		}
	})
	if !found {
		return nil
	}
	return []Candidate{best}
}

// Merge implements Detector by keeping the first strictly greater best.
func (d *ConvolutionKernelDetector) Merge(parts [][]Candidate) []Candidate {
	var best *Candidate
	for _, p := range parts {
		for i := range p {
			if best == nil || p[i].Score > best.Score {
				best = &p[i]
			}
		}
	}
	if best == nil {
		return nil
	}
	return []Candidate{*best}
}
