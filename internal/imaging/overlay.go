package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/xray-tools-mcp/internal/detection"
)

// RasterSurface draws annotations directly onto an RGBA image. It behaves
// like a canvas 2D context restricted to stroked circles: a stroke color, a
// line width, and an optional dash pattern measured along the arc.
type RasterSurface struct {
	img   *image.RGBA
	color color.RGBA
	width float64
	dash  []float64
}

// NewRasterSurface returns a surface drawing on img with a 1px black stroke.
func NewRasterSurface(img *image.RGBA) *RasterSurface {
	return &RasterSurface{img: img, color: color.RGBA{0, 0, 0, 255}, width: 1}
}

// Image returns the target image.
func (s *RasterSurface) Image() *image.RGBA {
	return s.img
}

// SetStrokeColor parses a "#rrggbb" color.
func (s *RasterSurface) SetStrokeColor(hex string) error {
	c, err := parseHexColor(hex)
	if err != nil {
		return err
	}
	s.color = c
	return nil
}

// SetLineWidth sets the stroke width in pixels. Non-positive widths are
// ignored, as on a canvas.
func (s *RasterSurface) SetLineWidth(w float64) {
	if w > 0 {
		s.width = w
	}
}

// SetLineDash sets alternating dash and gap lengths. A nil or empty pattern
// draws solid lines. Patterns with an odd number of entries are repeated
// once, and patterns with negative entries are ignored.
func (s *RasterSurface) SetLineDash(pattern []float64) {
	for _, v := range pattern {
		if v < 0 || math.IsNaN(v) {
			return
		}
	}
	dash := append([]float64(nil), pattern...)
	if len(dash)%2 == 1 {
		dash = append(dash, dash...)
	}
	if sum(dash) == 0 {
		dash = nil
	}
	s.dash = dash
}

// StrokeCircle strokes a full circle of radius r centered on (cx, cy),
// starting at angle 0 and proceeding clockwise on screen.
func (s *RasterSurface) StrokeCircle(cx, cy, r float64) {
	if r <= 0 {
		return
	}
	half := s.width / 2
	outer := r + half
	bounds := s.img.Bounds()

	x0 := int(math.Floor(cx - outer))
	x1 := int(math.Ceil(cx + outer))
	y0 := int(math.Floor(cy - outer))
	y1 := int(math.Ceil(cy + outer))

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			// Pixel centers sit at +0.5, as on a canvas.
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if math.Abs(math.Hypot(dx, dy)-r) > half {
				continue
			}
			if !s.onDash(r, math.Atan2(dy, dx)) {
				continue
			}
			s.img.SetRGBA(x, y, s.color)
		}
	}
}

// onDash reports whether the arc position at angle theta falls on a dash.
func (s *RasterSurface) onDash(r, theta float64) bool {
	if len(s.dash) == 0 {
		return true
	}
	if theta < 0 {
		theta += 2 * math.Pi
	}
	pos := math.Mod(theta*r, sum(s.dash))
	for i, seg := range s.dash {
		if pos < seg {
			return i%2 == 0
		}
		pos -= seg
	}
	return true
}

// DrawLabel writes text with its top-left corner at (x, y) over a filled
// background box.
func (s *RasterSurface) DrawLabel(x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	w := font.MeasureString(face, text).Ceil()
	h := metrics.Height.Ceil()

	box := image.Rect(x-2, y-1, x+w+2, y+h+1).Intersect(s.img.Bounds())
	draw.Draw(s.img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
}

// Render returns a copy of img with the annotation stroked on it and, if
// label is non-empty, a caption in the top-left corner. A nil annotation
// only draws the label.
func Render(img image.Image, a *detection.Annotation, label string) (*image.RGBA, error) {
	out := clone.AsRGBA(img)
	s := NewRasterSurface(out)

	fg := color.Color(color.White)
	if a != nil {
		if err := a.Apply(s); err != nil {
			return nil, fmt.Errorf("failed to draw annotation: %w", err)
		}
		fg = s.color
	}
	if label != "" {
		b := out.Bounds()
		s.DrawLabel(b.Min.X+4, b.Min.Y+4, label, fg, color.RGBA{0, 0, 0, 180})
	}
	return out, nil
}

// parseHexColor parses a "#rrggbb" (or "#rgb") color into an opaque RGBA.
func parseHexColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func sum(v []float64) float64 {
	var t float64
	for _, x := range v {
		t += x
	}
	return t
}
