package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the smallest length treated as a real direction. Shorter vectors
// are replaced by the epsilon vector (Epsilon, 0) before normalisation.
const Epsilon = 1e-6

// Point is a position or displacement in the plane.
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Undefined returns the NaN sentinel used for "no position yet".
func Undefined() Point { return Point{X: math.NaN(), Y: math.NaN()} }

// IsNaN reports whether either coordinate is NaN.
func IsNaN(p Point) bool { return math.IsNaN(p.X) || math.IsNaN(p.Y) }

// IsInfinite reports whether either coordinate is infinite.
func IsInfinite(p Point) bool { return math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) }

// IsValid reports whether p has two finite coordinates.
func IsValid(p Point) bool { return !IsNaN(p) && !IsInfinite(p) }

// Distance returns the euclidean distance between a and b.
func Distance(a, b Point) float64 { return r2.Norm(r2.Sub(a, b)) }

// SafeUnit returns the unit vector of v. Vectors shorter than Epsilon (or
// containing NaN) are replaced by the epsilon vector so callers never see NaN.
func SafeUnit(v Point) Point {
	n := r2.Norm(v)
	if n < Epsilon || math.IsNaN(n) || math.IsInf(n, 0) {
		v = Point{X: Epsilon}
		n = Epsilon
	}
	return r2.Scale(1/n, v)
}

// Perpendicular returns v rotated by -90 degrees, i.e. (v.Y, -v.X).
func Perpendicular(v Point) Point { return Point{X: v.Y, Y: -v.X} }

// Lerp interpolates between a and b; t=0 gives a and t=1 gives b.
func Lerp(a, b Point, t float64) Point {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// UnitSize is the size assumed for vertices that were never measured.
var UnitSize = Size{Width: 1, Height: 1}

// IsValid reports whether both dimensions are finite and non-negative.
func (s Size) IsValid() bool {
	return !math.IsNaN(s.Width) && !math.IsNaN(s.Height) &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0) &&
		s.Width >= 0 && s.Height >= 0
}

// IsEmpty reports whether the size has no area.
func (s Size) IsEmpty() bool { return s.Width <= 0 || s.Height <= 0 }

// OrUnit returns s, or UnitSize when s is not a usable size.
func (s Size) OrUnit() Size {
	if !s.IsValid() {
		return UnitSize
	}
	return s
}
