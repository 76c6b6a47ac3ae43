package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/xray-tools-mcp/internal/detection"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	black = color.RGBA{0, 0, 0, 255}
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff0000", red, false},
		{"#ffa500", color.RGBA{255, 165, 0, 255}, false},
		{"#fff", color.RGBA{255, 255, 255, 255}, false},
		{"ff0000", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHexColor failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// circleFixture strokes a red radius-20, width-4 circle at (50,50).
func circleFixture(t *testing.T, dash []float64) *image.RGBA {
	t.Helper()
	img := createInMemoryImage(100, 100, black)
	s := NewRasterSurface(img)
	if err := s.SetStrokeColor("#ff0000"); err != nil {
		t.Fatalf("SetStrokeColor failed: %v", err)
	}
	s.SetLineWidth(4)
	s.SetLineDash(dash)
	s.StrokeCircle(50, 50, 20)
	return img
}

func TestRasterSurface_StrokeCircle(t *testing.T) {
	img := circleFixture(t, nil)

	onRing := []image.Point{{70, 50}, {29, 50}, {50, 70}, {50, 29}, {65, 61}}
	for _, p := range onRing {
		if img.RGBAAt(p.X, p.Y) != red {
			t.Errorf("(%d,%d) should be on the ring", p.X, p.Y)
		}
	}
	offRing := []image.Point{{50, 50}, {60, 50}, {75, 50}, {0, 0}}
	for _, p := range offRing {
		if img.RGBAAt(p.X, p.Y) != black {
			t.Errorf("(%d,%d) should be untouched", p.X, p.Y)
		}
	}
}

func TestRasterSurface_Dashed(t *testing.T) {
	img := circleFixture(t, []float64{10, 6})

	// Arc position ~0.5 lies in the first dash.
	if img.RGBAAt(70, 50) != red {
		t.Error("(70,50) should be on a dash")
	}
	// Arc position ~12.8 lies in the first gap.
	if img.RGBAAt(65, 61) != black {
		t.Error("(65,61) should be in a gap")
	}
}

func TestRasterSurface_ClipsToBounds(t *testing.T) {
	img := createInMemoryImage(20, 20, black)
	s := NewRasterSurface(img)
	s.SetLineWidth(3)
	// Mostly outside the image; must not panic.
	s.StrokeCircle(0, 0, 15)
	s.StrokeCircle(-100, -100, 5)
	s.StrokeCircle(10, 10, 0)
}

func TestRasterSurface_SetLineDash(t *testing.T) {
	s := NewRasterSurface(createInMemoryImage(1, 1, black))

	s.SetLineDash([]float64{5})
	if len(s.dash) != 2 {
		t.Errorf("odd pattern: got %v, want repeated", s.dash)
	}
	s.SetLineDash([]float64{-1, 2})
	if len(s.dash) != 2 {
		t.Errorf("negative pattern should be ignored, got %v", s.dash)
	}
	s.SetLineDash(nil)
	if s.dash != nil {
		t.Errorf("nil pattern: got %v", s.dash)
	}
	s.SetLineWidth(-2)
	if s.width != 1 {
		t.Errorf("negative width should be ignored, got %v", s.width)
	}
}

func TestRender(t *testing.T) {
	src := createInMemoryImage(100, 100, black)
	report := detection.Report{Status: detection.Critical, Coordinate: &detection.Point{X: 50, Y: 50}}
	a := detection.SolidStyle().Emit(report)

	out, err := Render(src, a, "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// Radius 40, width 5: (90,50) lies on the ring.
	if out.RGBAAt(90, 50) != red {
		t.Errorf("(90,50): got %v, want red", out.RGBAAt(90, 50))
	}
	if src.RGBAAt(90, 50) != black {
		t.Error("Render modified the source image")
	}
}

func TestRender_Label(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	src := createInMemoryImage(200, 60, white)

	out, err := Render(src, nil, "Healthy 0.0%")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.RGBAAt(3, 4) == white {
		t.Error("label background not drawn")
	}
	if out.RGBAAt(190, 50) != white {
		t.Error("pixels away from the label changed")
	}
}

func TestRender_BadAnnotation(t *testing.T) {
	a := &detection.Annotation{Shape: detection.ShapeCircle, StrokeColor: "red", Radius: 5}
	if _, err := Render(createInMemoryImage(10, 10, black), a, ""); err == nil {
		t.Error("expected error for an invalid stroke color")
	}
}
