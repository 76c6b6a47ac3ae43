package detection

import (
	"testing"

	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

func TestNeighborDeviation_DarkSquare(t *testing.T) {
	buf := newGrayBuffer(t, 100, 100, 200)
	fillRect(buf, 48, 48, 56, 56, 50)
	d := NewNeighborDeviationDetector()
	win := mustWindow(t, 100, 100, 0.12, dsp.DefaultFineStep)

	got := d.Scan(buf, win, 100)

	// Sites above the square see it below; sites left of it see it ahead.
	want := []Point{
		{48, 40}, {52, 40}, {48, 44}, {52, 44},
		{40, 48}, {44, 48}, {40, 52}, {44, 52},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates %v, want %d", len(got), got, len(want))
	}
	for i, p := range want {
		if got[i].Point() != p {
			t.Errorf("candidate %d: got %v, want %v", i, got[i].Point(), p)
		}
		if got[i].Score != 150 {
			t.Errorf("candidate %d: got score %v, want gap 150", i, got[i].Score)
		}
	}
}

func TestNeighborDeviation_UniformHasNoCandidates(t *testing.T) {
	buf := newGrayBuffer(t, 80, 80, 220)
	d := NewNeighborDeviationDetector()
	win := mustWindow(t, 80, 80, 0.12, dsp.DefaultFineStep)

	if got := d.Scan(buf, win, 100); len(got) != 0 {
		t.Errorf("got %d candidates on a uniform buffer", len(got))
	}
}

func TestNeighborDeviation_Qualifies(t *testing.T) {
	d := NewNeighborDeviationDetector()
	tests := []struct {
		lum, baseline float64
		want          bool
	}{
		{111, 100, true},
		{110, 100, false},
		{0, 0, false},
		{1, 0, true},
	}
	for _, tt := range tests {
		if got := d.Qualifies(tt.lum, tt.baseline); got != tt.want {
			t.Errorf("Qualifies(%v, %v) = %v, want %v", tt.lum, tt.baseline, got, tt.want)
		}
	}
}

func TestNeighborDeviation_ScoreBounds(t *testing.T) {
	buf := newGrayBuffer(t, 10, 10, 200)
	setGray(buf, 9, 5, 20) // right of (1,5)
	setGray(buf, 5, 9, 30) // below (5,1)
	d := NewNeighborDeviationDetector()

	tests := []struct {
		name   string
		x, y   int
		want   float64
		wantOK bool
	}{
		{"both neighbors", 1, 1, 0, true},
		{"ahead only", 1, 5, 180, true},
		{"below only", 5, 1, 170, true},
		{"neither neighbor", 5, 5, 0, false},
		{"outside buffer", 10, 0, 0, false},
		{"negative", -1, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Score(buf, tt.x, tt.y)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("score: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeighborDeviation_ThresholdIsStrict(t *testing.T) {
	buf := newGrayBuffer(t, 40, 40, 200)
	// A drop of exactly 90 below row 0 sites is not recorded; 91 is.
	fillRect(buf, 0, 8, 20, 9, 110)
	fillRect(buf, 20, 8, 40, 9, 109)
	d := NewNeighborDeviationDetector()
	win := dsp.ScanWindow{XStart: 0, XEnd: 40, YStart: 0, YEnd: 1, Step: 4}

	got := d.Scan(buf, win, 100)
	for _, c := range got {
		if c.X < 20 {
			t.Errorf("site (%d,%d) with deviation 90 recorded", c.X, c.Y)
		}
	}
	// Sites x = 20, 24, 28, 32, 36 see a drop of 91 below.
	if len(got) != 5 {
		t.Errorf("got %d candidates, want 5", len(got))
	}
}
