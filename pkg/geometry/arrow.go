package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Arrow is an arrowhead triangle. Tip touches the target; Left and Right are
// the base corners.
type Arrow struct {
	Tip   Point `json:"tip"`
	Left  Point `json:"left"`
	Right Point `json:"right"`
}

// NewArrow builds an arrowhead pointing from `from` to `to` with its tip at
// `to`. A zero-length direction falls back to the epsilon vector.
func NewArrow(from, to Point, length, width float64) Arrow {
	dir := SafeUnit(r2.Sub(to, from))
	base := r2.Sub(to, r2.Scale(length, dir))
	half := r2.Scale(width/2, Perpendicular(dir))
	return Arrow{Tip: to, Left: r2.Add(base, half), Right: r2.Sub(base, half)}
}

// NewArrowAngle builds an arrowhead at tip pointing in the direction given by
// angle (radians, 0 = +X, π/2 = +Y).
func NewArrowAngle(tip Point, angle, length, width float64) Arrow {
	from := r2.Sub(tip, Point{X: math.Cos(angle), Y: math.Sin(angle)})
	return NewArrow(from, tip, length, width)
}
