package geometry

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Shape selects the outline used to compute edge attach points.
type Shape int

const (
	// ShapeRectangle attaches edges to the vertex bounding box.
	ShapeRectangle Shape = iota
	// ShapeEllipse attaches edges to the ellipse inscribed in the bounding box.
	ShapeEllipse
	// ShapeNone attaches edges to the vertex center.
	ShapeNone
)

var shapeNames = map[Shape]string{
	ShapeRectangle: "rectangle",
	ShapeEllipse:   "ellipse",
	ShapeNone:      "none",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape converts a shape name to a Shape. The empty string is a rectangle.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ShapeRectangle, nil
	}
	for s, n := range shapeNames {
		if n == name {
			return s, nil
		}
	}
	return ShapeRectangle, fmt.Errorf("unknown shape %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AttachPoint returns the point where the ray from the center of the shape
// toward `toward` leaves the shape outline. When toward coincides with the
// center the epsilon direction is used, so the result is always on the
// boundary.
func AttachPoint(bounds Rect, shape Shape, toward Point) Point {
	c := bounds.Center()
	return BoundaryPoint(bounds, shape, c, r2.Sub(toward, c))
}

// BoundaryPoint returns where the ray starting at origin (which should lie
// inside bounds) in direction dir leaves the outline. Origins outside the
// bounds are clamped onto them first.
func BoundaryPoint(bounds Rect, shape Shape, origin, dir Point) Point {
	origin = clamp(bounds, origin)
	if shape == ShapeNone {
		return bounds.Center()
	}
	u := SafeUnit(dir)
	switch shape {
	case ShapeEllipse:
		return ellipseExit(bounds, origin, u)
	default:
		return rectExit(bounds, origin, u)
	}
}

func clamp(r Rect, p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, r.X), r.Right()),
		Y: math.Min(math.Max(p.Y, r.Y), r.Bottom()),
	}
}

func rectExit(r Rect, o, u Point) Point {
	t := math.Inf(1)
	if u.X > 0 {
		t = math.Min(t, (r.Right()-o.X)/u.X)
	} else if u.X < 0 {
		t = math.Min(t, (r.X-o.X)/u.X)
	}
	if u.Y > 0 {
		t = math.Min(t, (r.Bottom()-o.Y)/u.Y)
	} else if u.Y < 0 {
		t = math.Min(t, (r.Y-o.Y)/u.Y)
	}
	if math.IsInf(t, 0) || t < 0 {
		t = 0
	}
	return clamp(r, r2.Add(o, r2.Scale(t, u)))
}

func ellipseExit(r Rect, o, u Point) Point {
	a, b := r.Width/2, r.Height/2
	if a <= 0 || b <= 0 {
		return rectExit(r, o, u)
	}
	c := r.Center()
	// Solve ((o-c)+t*u) on the ellipse for the positive root.
	px, py := (o.X-c.X)/a, (o.Y-c.Y)/b
	dx, dy := u.X/a, u.Y/b
	qa := dx*dx + dy*dy
	qb := 2 * (px*dx + py*dy)
	qc := px*px + py*py - 1
	disc := qb*qb - 4*qa*qc
	if qa == 0 || disc < 0 {
		return o
	}
	t := (-qb + math.Sqrt(disc)) / (2 * qa)
	if t < 0 {
		t = 0
	}
	return r2.Add(o, r2.Scale(t, u))
}

// OnBoundary reports whether p lies on the outline within tol.
func OnBoundary(bounds Rect, shape Shape, p Point, tol float64) bool {
	switch shape {
	case ShapeNone:
		return Distance(p, bounds.Center()) <= tol
	case ShapeEllipse:
		a, b := bounds.Width/2, bounds.Height/2
		if a <= 0 || b <= 0 {
			return OnBoundary(bounds, ShapeRectangle, p, tol)
		}
		// Compare against the boundary point in the same direction.
		q := AttachPoint(bounds, shape, p)
		return Distance(p, q) <= tol
	default:
		inside := bounds.Inflate(tol, tol).Contains(p)
		if !inside {
			return false
		}
		return math.Abs(p.X-bounds.X) <= tol || math.Abs(p.X-bounds.Right()) <= tol ||
			math.Abs(p.Y-bounds.Y) <= tol || math.Abs(p.Y-bounds.Bottom()) <= tol
	}
}

// BackStep moves p by d toward `toward`. When the two points are closer than
// d the result is the midpoint, so the segment never flips.
func BackStep(p, toward Point, d float64) Point {
	dist := Distance(p, toward)
	if d <= 0 || dist < Epsilon {
		return p
	}
	if d >= dist {
		return Lerp(p, toward, 0.5)
	}
	return r2.Add(p, r2.Scale(d, SafeUnit(r2.Sub(toward, p))))
}
