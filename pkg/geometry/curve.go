package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// DefaultTension gives Catmull-Rom curves.
	DefaultTension = 0.5

	// DefaultTolerance is the target sampling distance in pixels.
	DefaultTolerance = 8.0
)

// CurveThroughPoints returns a smooth polyline that passes through every
// input point. Each segment is a cardinal spline with the given tension
// (0.5 is Catmull-Rom) sampled roughly every tolerance units.
//
// Fewer than three points are returned unchanged (as a copy).
func CurveThroughPoints(points []Point, tension, tolerance float64) []Point {
	if len(points) < 3 {
		return append([]Point(nil), points...)
	}
	if tolerance <= 0 || math.IsNaN(tolerance) {
		tolerance = DefaultTolerance
	}

	out := make([]Point, 0, len(points)*4)
	out = append(out, points[0])
	last := len(points) - 1
	for i := 0; i < last; i++ {
		p0 := points[max(i-1, 0)]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[min(i+2, last)]

		n := int(math.Ceil(Distance(p1, p2) / tolerance))
		if n < 1 {
			n = 1
		}
		m1 := r2.Scale(tension, r2.Sub(p2, p0))
		m2 := r2.Scale(tension, r2.Sub(p3, p1))
		for s := 1; s < n; s++ {
			out = append(out, hermite(p1, p2, m1, m2, float64(s)/float64(n)))
		}
		out = append(out, p2)
	}
	return out
}

func hermite(p1, p2, m1, m2 Point, t float64) Point {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return Point{
		X: h00*p1.X + h10*m1.X + h01*p2.X + h11*m2.X,
		Y: h00*p1.Y + h10*m1.Y + h01*p2.Y + h11*m2.Y,
	}
}

// Simplify drops interior points that lie on the straight line between their
// neighbours (within tol).
func Simplify(points []Point, tol float64) []Point {
	if len(points) < 3 {
		return append([]Point(nil), points...)
	}
	out := []Point{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev := out[len(out)-1]
		if !collinear(prev, points[i], points[i+1], tol) {
			out = append(out, points[i])
		}
	}
	return append(out, points[len(points)-1])
}

func collinear(a, b, c Point, tol float64) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	return math.Abs(cross) <= tol*math.Max(1, Distance(a, c))
}
