package imaging

import (
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// maxIntensitySamples bounds the pixels read by MeasureIntensity. Larger
// images are sampled on a regular grid.
const maxIntensitySamples = 250000

// IntensityStats summarizes the luma distribution of an image, in 0..255.
type IntensityStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`

	// Samples is the number of pixels measured.
	Samples int `json:"samples"`
}

// MeasureIntensity computes luma statistics of img using the same BT.601
// weights as the grayscale normalizer.
func MeasureIntensity(img image.Image) IntensityStats {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return IntensityStats{}
	}

	step := 1
	if n := w * h; n > maxIntensitySamples {
		step = int(math.Ceil(math.Sqrt(float64(n) / maxIntensitySamples)))
	}

	samples := make([]float64, 0, ((w+step-1)/step)*((h+step-1)/step))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			samples = append(samples, dsp.Luma(c.R, c.G, c.B))
		}
	}

	sort.Float64s(samples)
	mean, std := stat.MeanStdDev(samples, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return IntensityStats{
		Min:     samples[0],
		Max:     samples[len(samples)-1],
		Mean:    mean,
		StdDev:  std,
		Median:  stat.Quantile(0.5, stat.Empirical, samples, nil),
		Samples: len(samples),
	}
}
