package geometry

import "math"

// SelfLoopParams controls the fixed self-loop glyph.
type SelfLoopParams struct {
	// Radius of the loop circle.
	Radius float64 `json:"radius" toml:"radius"`
	// Offset moves the circle from the vertex top-left corner toward the
	// inside of the vertex.
	Offset Point `json:"offset" toml:"-"`
	// Hide disables self-loop geometry entirely.
	Hide bool `json:"hide,omitempty" toml:"hide"`
}

// DefaultSelfLoopParams returns radius 20 and offset (10, 10).
func DefaultSelfLoopParams() SelfLoopParams {
	return SelfLoopParams{Radius: 20, Offset: Point{X: 10, Y: 10}}
}

// SelfLoop is the geometry drawn for an edge whose source is its target.
type SelfLoop struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
	Arrow  Arrow   `json:"arrow"`
}

// NewSelfLoop anchors a loop circle at the top-left corner of bounds. The
// circle is centred on (left+offset.X-r, top+offset.Y-r) so it overlaps the
// vertex corner; the arrow points down onto the corner.
func NewSelfLoop(bounds Rect, p SelfLoopParams) SelfLoop {
	r := p.Radius
	if r <= 0 || math.IsNaN(r) {
		r = DefaultSelfLoopParams().Radius
	}
	center := Point{
		X: bounds.X + p.Offset.X - r,
		Y: bounds.Y + p.Offset.Y - r,
	}
	tip := Point{X: bounds.X, Y: bounds.Y}
	return SelfLoop{
		Center: center,
		Radius: r,
		Arrow:  NewArrowAngle(tip, math.Pi/2, r/2, r/2),
	}
}

// Polyline approximates the loop circle with n segments, starting and ending
// at the vertex corner side of the circle.
func (l SelfLoop) Polyline(n int) []Point {
	if n < 4 {
		n = 4
	}
	pts := make([]Point, 0, n+1)
	start := math.Pi / 4
	for i := 0; i <= n; i++ {
		a := start + 2*math.Pi*float64(i)/float64(n)
		pts = append(pts, Point{X: l.Center.X + l.Radius*math.Cos(a), Y: l.Center.Y + l.Radius*math.Sin(a)})
	}
	return pts
}
