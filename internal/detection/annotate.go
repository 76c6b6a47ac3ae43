package detection

import "fmt"

// Shape names an annotation primitive. Only circles are emitted.
type Shape string

// ShapeCircle is a stroked circle.
const ShapeCircle Shape = "circle"

// Stroke colors.
const (
	CriticalColor   = "#ff0000"
	SuspiciousColor = "#ffa500"
)

// Annotation is a declarative drawing instruction for a display surface.
type Annotation struct {
	Shape       Shape     `json:"shape"`
	CenterX     int       `json:"center_x"`
	CenterY     int       `json:"center_y"`
	Radius      float64   `json:"radius"`
	StrokeColor string    `json:"stroke_color"`
	LineWidth   float64   `json:"line_width"`
	Dashed      bool      `json:"dashed"`
	DashPattern []float64 `json:"dash_pattern,omitempty"`
}

// Surface is anything an Annotation can be drawn on: a canvas context, a
// raster image, a vector recorder.
type Surface interface {
	SetStrokeColor(hex string) error
	SetLineWidth(w float64)
	SetLineDash(pattern []float64)
	StrokeCircle(cx, cy, r float64)
}

// Apply replays the instruction on s.
func (a *Annotation) Apply(s Surface) error {
	if a.Shape != ShapeCircle {
		return fmt.Errorf("unsupported annotation shape %q", a.Shape)
	}
	if err := s.SetStrokeColor(a.StrokeColor); err != nil {
		return fmt.Errorf("stroke color: %w", err)
	}
	s.SetLineWidth(a.LineWidth)
	if a.Dashed {
		s.SetLineDash(a.DashPattern)
	} else {
		s.SetLineDash(nil)
	}
	s.StrokeCircle(float64(a.CenterX), float64(a.CenterY), a.Radius)
	return nil
}

// Style holds the geometry of emitted circles.
type Style struct {
	Radius      float64   `json:"radius"`
	LineWidth   float64   `json:"line_width"`
	DashPattern []float64 `json:"dash_pattern,omitempty"`
}

// DashedStyle is the style paired with the neighbor-deviation detector.
func DashedStyle() Style {
	return Style{Radius: 45, LineWidth: 4, DashPattern: []float64{10, 6}}
}

// SolidStyle is the style paired with the convolution detector.
func SolidStyle() Style {
	return Style{Radius: 40, LineWidth: 5}
}

// StyleFor returns the style paired with a strategy.
func StyleFor(s Strategy) Style {
	if s == ConvolutionKernel {
		return SolidStyle()
	}
	return DashedStyle()
}

// Emit returns the circle marking the report's coordinate, or nil for a
// Healthy report or one without a coordinate.
func (st Style) Emit(r Report) *Annotation {
	if r.Status == Healthy || r.Coordinate == nil {
		return nil
	}

	color := CriticalColor
	if r.Status == Suspicious {
		color = SuspiciousColor
	}
	a := &Annotation{
		Shape:       ShapeCircle,
		CenterX:     r.Coordinate.X,
		CenterY:     r.Coordinate.Y,
		Radius:      st.Radius,
		StrokeColor: color,
		LineWidth:   st.LineWidth,
	}
	if len(st.DashPattern) > 0 {
		a.Dashed = true
		a.DashPattern = append([]float64(nil), st.DashPattern...)
	}
	return a
}
