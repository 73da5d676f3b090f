package geometry

import (
	"math"
	"testing"
)

const tol = 1e-9

func near(a, b Point) bool { return Distance(a, b) <= 1e-6 }

func TestValidity(t *testing.T) {
	tests := []struct {
		name  string
		p     Point
		valid bool
	}{
		{"origin", Pt(0, 0), true},
		{"undefined", Undefined(), false},
		{"half NaN", Pt(1, math.NaN()), false},
		{"infinite", Pt(math.Inf(1), 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.p); got != tt.valid {
				t.Errorf("IsValid(%v) = %v, want %v", tt.p, got, tt.valid)
			}
		})
	}

	if !IsNaN(Undefined()) {
		t.Error("IsNaN(Undefined()) = false, want true")
	}
	if got := (Size{Width: math.NaN(), Height: 3}).OrUnit(); got != UnitSize {
		t.Errorf("OrUnit() = %v, want %v", got, UnitSize)
	}
	if got := (Size{Width: 4, Height: 3}).OrUnit(); got != (Size{Width: 4, Height: 3}) {
		t.Errorf("OrUnit() = %v, want unchanged", got)
	}
}

func TestSafeUnit(t *testing.T) {
	if got := SafeUnit(Pt(0, 0)); !near(got, Pt(1, 0)) {
		t.Errorf("SafeUnit(0,0) = %v, want (1,0)", got)
	}
	if got := SafeUnit(Pt(0, -5)); !near(got, Pt(0, -1)) {
		t.Errorf("SafeUnit(0,-5) = %v, want (0,-1)", got)
	}
	if got := SafeUnit(Undefined()); IsNaN(got) {
		t.Errorf("SafeUnit(NaN) = %v, want finite", got)
	}
}

func TestAttachPointRectangle(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 50}
	tests := []struct {
		name   string
		toward Point
		want   Point
	}{
		{"right", Pt(200, 25), Pt(100, 25)},
		{"up", Pt(50, -100), Pt(50, 0)},
		{"left", Pt(-10, 25), Pt(0, 25)},
		{"diagonal hits bottom", Pt(150, 125), Pt(75, 50)},
		{"degenerate uses epsilon", Pt(50, 25), Pt(100, 25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttachPoint(r, ShapeRectangle, tt.toward)
			if !near(got, tt.want) {
				t.Errorf("AttachPoint() = %v, want %v", got, tt.want)
			}
			if !OnBoundary(r, ShapeRectangle, got, 1e-6) {
				t.Errorf("AttachPoint() = %v is not on the boundary", got)
			}
		})
	}
}

func TestAttachPointEllipse(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 50}
	if got := AttachPoint(r, ShapeEllipse, Pt(200, 25)); !near(got, Pt(100, 25)) {
		t.Errorf("AttachPoint(right) = %v, want (100,25)", got)
	}
	if got := AttachPoint(r, ShapeEllipse, Pt(50, 200)); !near(got, Pt(50, 50)) {
		t.Errorf("AttachPoint(down) = %v, want (50,50)", got)
	}

	got := AttachPoint(r, ShapeEllipse, Pt(300, 300))
	v := (got.X-50)*(got.X-50)/2500 + (got.Y-25)*(got.Y-25)/625
	if math.Abs(v-1) > 1e-9 {
		t.Errorf("diagonal attach point %v is off the ellipse (%v)", got, v)
	}
}

func TestAttachPointNone(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 20}
	if got := AttachPoint(r, ShapeNone, Pt(100, 100)); !near(got, Pt(20, 20)) {
		t.Errorf("AttachPoint(none) = %v, want center", got)
	}
}

func TestBoundaryPointFromOffsetOrigin(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 40, Height: 40}
	got := BoundaryPoint(r, ShapeRectangle, Pt(20, 25), Pt(1, 0))
	if !near(got, Pt(40, 25)) {
		t.Errorf("BoundaryPoint() = %v, want (40,25)", got)
	}
}

func TestRectIntersectsSegment(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 10, Height: 10}
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"through", Pt(0, 15), Pt(30, 15), true},
		{"miss", Pt(0, 0), Pt(30, 0), false},
		{"border only", Pt(0, 10), Pt(30, 10), false},
		{"ends inside", Pt(0, 15), Pt(15, 15), true},
		{"stops short", Pt(0, 15), Pt(9, 15), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.IntersectsSegment(tt.a, tt.b); got != tt.want {
				t.Errorf("IntersectsSegment(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRectHelpers(t *testing.T) {
	r := RectFromCenter(Pt(10, 10), Size{Width: 4, Height: 2})
	if r != (Rect{X: 8, Y: 9, Width: 4, Height: 2}) {
		t.Errorf("RectFromCenter() = %+v", r)
	}
	if c := r.Center(); !near(c, Pt(10, 10)) {
		t.Errorf("Center() = %v, want (10,10)", c)
	}
	if got := r.Inflate(-5, 0); got.Width != 0 {
		t.Errorf("Inflate(-5,0).Width = %v, want 0", got.Width)
	}
	u := r.Union(Rect{X: 0, Y: 0, Width: 1, Height: 1})
	if u != (Rect{X: 0, Y: 0, Width: 12, Height: 11}) {
		t.Errorf("Union() = %+v", u)
	}
	if got := RectFromBox(r.Box()); got != r {
		t.Errorf("RectFromBox(Box()) = %+v, want %+v", got, r)
	}
}

func TestCurveThroughPoints(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(50, 40), Pt(100, 0), Pt(150, 40)}
	curve := CurveThroughPoints(pts, DefaultTension, 5)

	if len(curve) <= len(pts) {
		t.Fatalf("len(curve) = %d, want more than %d", len(curve), len(pts))
	}
	for _, p := range pts {
		found := false
		for _, q := range curve {
			if p == q {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("curve does not pass through %v", p)
		}
	}
	for _, q := range curve {
		if !IsValid(q) {
			t.Fatalf("curve contains invalid point %v", q)
		}
	}
	if curve[0] != pts[0] || curve[len(curve)-1] != pts[len(pts)-1] {
		t.Error("curve endpoints differ from input endpoints")
	}
}

func TestCurveThroughPointsShortInput(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(1, 1)}
	got := CurveThroughPoints(pts, DefaultTension, 0)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	got[0] = Pt(9, 9)
	if pts[0] != Pt(0, 0) {
		t.Error("CurveThroughPoints() aliased its input")
	}
}

func TestSimplify(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(5, 0), Pt(10, 0), Pt(10, 5), Pt(10, 10)}
	got := Simplify(pts, tol)
	want := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10)}
	if len(got) != len(want) {
		t.Fatalf("Simplify() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Simplify()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewArrow(t *testing.T) {
	a := NewArrow(Pt(0, 0), Pt(10, 0), 4, 2)
	if a.Tip != Pt(10, 0) {
		t.Errorf("Tip = %v, want (10,0)", a.Tip)
	}
	if !near(a.Left, Pt(6, -1)) || !near(a.Right, Pt(6, 1)) {
		t.Errorf("base = %v %v, want (6,-1) (6,1)", a.Left, a.Right)
	}

	d := NewArrow(Pt(3, 3), Pt(3, 3), 4, 2)
	if !IsValid(d.Left) || !IsValid(d.Right) {
		t.Errorf("degenerate arrow produced invalid points: %+v", d)
	}
}

func TestBackStep(t *testing.T) {
	if got := BackStep(Pt(0, 0), Pt(10, 0), 3); !near(got, Pt(3, 0)) {
		t.Errorf("BackStep() = %v, want (3,0)", got)
	}
	if got := BackStep(Pt(0, 0), Pt(2, 0), 3); !near(got, Pt(1, 0)) {
		t.Errorf("BackStep() short segment = %v, want midpoint", got)
	}
}

func TestNewSelfLoop(t *testing.T) {
	bounds := Rect{X: 100, Y: 100, Width: 40, Height: 30}
	l := NewSelfLoop(bounds, DefaultSelfLoopParams())

	if !near(l.Center, Pt(90, 90)) {
		t.Errorf("Center = %v, want (90,90)", l.Center)
	}
	if l.Radius != 20 {
		t.Errorf("Radius = %v, want 20", l.Radius)
	}
	if l.Arrow.Tip != Pt(100, 100) {
		t.Errorf("Arrow.Tip = %v, want vertex corner", l.Arrow.Tip)
	}
	if l.Arrow.Left.Y >= l.Arrow.Tip.Y {
		t.Errorf("arrow should point down onto the corner: %+v", l.Arrow)
	}
	if n := len(l.Polyline(12)); n != 13 {
		t.Errorf("len(Polyline(12)) = %d, want 13", n)
	}
}

func TestShapeText(t *testing.T) {
	var s Shape
	if err := s.UnmarshalText([]byte("Ellipse")); err != nil || s != ShapeEllipse {
		t.Errorf("UnmarshalText(Ellipse) = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("hexagon")); err == nil {
		t.Error("UnmarshalText(hexagon) error = nil, want error")
	}
}
