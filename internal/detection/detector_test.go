package detection

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// newGrayBuffer creates a w x h buffer filled with gray level v.
func newGrayBuffer(t *testing.T, w, h int, v uint8) *dsp.PixelBuffer {
	t.Helper()
	pix := make([]uint8, w*h*dsp.ChannelStride)
	for i := 0; i < len(pix); i += dsp.ChannelStride {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
	}
	buf, err := dsp.NewPixelBuffer(w, h, pix)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	return buf
}

// newNoiseBuffer creates a w x h buffer of seeded random gray levels.
func newNoiseBuffer(t *testing.T, w, h int, seed int64) *dsp.PixelBuffer {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	buf := newGrayBuffer(t, w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			setGray(buf, x, y, uint8(rng.Intn(256)))
		}
	}
	return buf
}

func setGray(buf *dsp.PixelBuffer, x, y int, v uint8) {
	i := buf.Index(x, y, 0)
	buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = v, v, v
}

func fillRect(buf *dsp.PixelBuffer, x0, y0, x1, y1 int, v uint8) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			setGray(buf, x, y, v)
		}
	}
}

func mustWindow(t *testing.T, w, h int, margin float64, step int) dsp.ScanWindow {
	t.Helper()
	win, err := dsp.NewScanWindow(w, h, margin, step)
	if err != nil {
		t.Fatalf("NewScanWindow failed: %v", err)
	}
	return win
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", NeighborDeviation, false},
		{"neighbor_deviation", NeighborDeviation, false},
		{"convolution_kernel", ConvolutionKernel, false},
		{"hough", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, dsp.ErrInvalidConfiguration) {
					t.Errorf("got %v, want ErrInvalidConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStrategy failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRank_StableOnTies(t *testing.T) {
	c := []Candidate{
		{X: 1, Y: 0, Score: 100},
		{X: 2, Y: 0, Score: 150},
		{X: 3, Y: 0, Score: 100},
		{X: 4, Y: 0, Score: 150},
	}
	Rank(c)

	want := []int{2, 4, 1, 3}
	for i, x := range want {
		if c[i].X != x {
			t.Errorf("position %d: got x=%d, want %d", i, c[i].X, x)
		}
	}
}

func TestTop(t *testing.T) {
	if Top(nil) != nil {
		t.Error("Top of empty list should be nil")
	}
	c := []Candidate{{X: 5, Y: 6, Score: 9}, {X: 1, Y: 1, Score: 1}}
	top := Top(c)
	if top == nil || top.X != 5 || top.Y != 6 {
		t.Errorf("got %+v, want first candidate", top)
	}
	top.X = 99
	if c[0].X != 5 {
		t.Error("Top must return a copy")
	}
}

func detectors() []Detector {
	return []Detector{NewNeighborDeviationDetector(), NewConvolutionKernelDetector()}
}

// Bounds are checked per site, so any buffer down to zero size and any
// window, even one reaching past the buffer, scans without panicking.
func TestScan_NoOutOfRangeReads(t *testing.T) {
	sizes := [][2]int{{0, 0}, {1, 1}, {2, 3}, {3, 3}, {7, 5}, {20, 20}, {21, 33}, {64, 17}, {97, 61}}
	margins := []float64{0, 0.12, 0.15, 0.49}

	for _, d := range detectors() {
		for _, sz := range sizes {
			for _, m := range margins {
				name := fmt.Sprintf("%s/%dx%d/m%.2f", d.Strategy(), sz[0], sz[1], m)
				t.Run(name, func(t *testing.T) {
					buf := newNoiseBuffer(t, sz[0], sz[1], int64(sz[0]*1000+sz[1]))
					for _, step := range []int{1, dsp.DefaultFineStep} {
						win := mustWindow(t, sz[0], sz[1], m, step)
						d.Scan(buf, win, 100)
					}
					// A window larger than the buffer.
					over := dsp.ScanWindow{XStart: -3, XEnd: sz[0] + 9, YStart: -3, YEnd: sz[1] + 9, Step: 2}
					d.Scan(buf, over, 100)
				})
			}
		}
	}
}

func TestScan_ParallelMatchesSequential(t *testing.T) {
	sizes := [][2]int{{20, 20}, {64, 48}, {97, 61}, {160, 120}}

	for _, d := range detectors() {
		for _, sz := range sizes {
			name := fmt.Sprintf("%s/%dx%d", d.Strategy(), sz[0], sz[1])
			t.Run(name, func(t *testing.T) {
				buf := newNoiseBuffer(t, sz[0], sz[1], 42)
				win := mustWindow(t, sz[0], sz[1], 0.12, dsp.DefaultFineStep)
				want := d.Scan(buf, win, 60)

				for _, workers := range []int{0, 1, 2, 3, 7, 64} {
					got := Scan(d, buf, win, 60, workers)
					if !reflect.DeepEqual(got, want) {
						t.Errorf("workers=%d: got %d candidates %v, want %d %v",
							workers, len(got), Top(got), len(want), Top(want))
					}
				}
			})
		}
	}
}

func TestScan_ParallelKeepsFirstSeenTie(t *testing.T) {
	buf := newGrayBuffer(t, 100, 100, 200)
	// Two identical dark dots, adjacent to sites (23,23) and (71,71).
	setGray(buf, 24, 24, 50)
	setGray(buf, 72, 72, 50)
	d := NewConvolutionKernelDetector()
	win := mustWindow(t, 100, 100, 0.15, dsp.DefaultFineStep)

	for _, workers := range []int{1, 2, 5, 16} {
		got := Scan(d, buf, win, 0, workers)
		if len(got) != 1 {
			t.Fatalf("workers=%d: got %d candidates, want 1", workers, len(got))
		}
		if got[0].X != 23 || got[0].Y != 23 {
			t.Errorf("workers=%d: got (%d,%d), want first-seen (23,23)", workers, got[0].X, got[0].Y)
		}
	}
}
