package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromCenter builds the rectangle of the given size centred on c.
func RectFromCenter(c Point, s Size) Rect {
	return Rect{X: c.X - s.Width/2, Y: c.Y - s.Height/2, Width: s.Width, Height: s.Height}
}

// RectFromBox converts a gonum box (min/max corners) to a Rect.
func RectFromBox(b r2.Box) Rect {
	return Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Max.X - b.Min.X, Height: b.Max.Y - b.Min.Y}
}

// Box returns the rectangle as a gonum box.
func (r Rect) Box() r2.Box {
	return r2.Box{Min: Point{X: r.X, Y: r.Y}, Max: Point{X: r.Right(), Y: r.Bottom()}}
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// WithCenter returns r translated so that its center is c.
func (r Rect) WithCenter(c Point) Rect { return RectFromCenter(c, r.Size()) }

// Inflate grows the rectangle by dx on the left and right and dy on the top
// and bottom. Negative values shrink it; dimensions never go below zero.
func (r Rect) Inflate(dx, dy float64) Rect {
	out := Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
	if out.Width < 0 {
		out.X += out.Width / 2
		out.Width = 0
	}
	if out.Height < 0 {
		out.Y += out.Height / 2
		out.Height = 0
	}
	return out
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Contains reports whether p lies inside r or on its border.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersects reports whether the interiors of r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// IntersectsSegment reports whether the segment a-b passes through the
// interior of r, using Liang-Barsky clipping. Segments that only touch the
// border do not count.
func (r Rect) IntersectsSegment(a, b Point) bool {
	t0, t1, ok := r.clip(a, b)
	if !ok {
		return false
	}
	mid := Lerp(a, b, (t0+t1)/2)
	return mid.X > r.X && mid.X < r.Right() && mid.Y > r.Y && mid.Y < r.Bottom()
}

func (r Rect) clip(a, b Point) (t0, t1 float64, ok bool) {
	d := r2.Sub(b, a)
	t0, t1 = 0, 1
	edges := [4][2]float64{
		{-d.X, a.X - r.X},
		{d.X, r.Right() - a.X},
		{-d.Y, a.Y - r.Y},
		{d.Y, r.Bottom() - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return 0, 0, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return t0, t1, t0 < t1
}

// Corners returns the four corners clockwise from the top-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}
}

// IsValid reports whether all fields are finite and the size is non-negative.
func (r Rect) IsValid() bool {
	return IsValid(Point{X: r.X, Y: r.Y}) && r.Size().IsValid()
}

// Bounds returns the union of all rectangles, or the zero Rect for none.
func Bounds(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out
}
