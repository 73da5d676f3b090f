package overlap

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

func squares(side float64, centers ...geometry.Point) map[graph.VertexID]geometry.Rect {
	out := make(map[graph.VertexID]geometry.Rect, len(centers))
	for i, c := range centers {
		out[graph.VertexID(i)] = geometry.RectFromCenter(c, geometry.Size{Width: side, Height: side})
	}
	return out
}

// assertGaps fails unless every pair keeps at least the configured gap on
// one axis.
func assertGaps(t *testing.T, rects map[graph.VertexID]geometry.Rect, hgap, vgap float64) {
	t.Helper()
	for a, ra := range rects {
		for b, rb := range rects {
			if a >= b {
				continue
			}
			ca, cb := ra.Center(), rb.Center()
			needX := (ra.Width+rb.Width)/2 + hgap
			needY := (ra.Height+rb.Height)/2 + vgap
			if math.Abs(ca.X-cb.X) < needX-1e-5 && math.Abs(ca.Y-cb.Y) < needY-1e-5 {
				t.Errorf("vertices %d and %d still overlap: %v %v", a, b, ra, rb)
			}
		}
	}
}

func TestFSA_CoincidentSquares(t *testing.T) {
	f, err := NewFSA(DefaultFSAParams())
	if err != nil {
		t.Fatal(err)
	}
	in := squares(50, geometry.Pt(0, 0), geometry.Pt(0, 0))
	res, err := f.Compute(context.Background(), in)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	a, b := res.Rects[0].Center(), res.Rects[1].Center()
	if d := geometry.Distance(a, b); d < 60-1e-9 {
		t.Errorf("distance = %v, want >= 60", d)
	}
	// Lower ID goes left, both move the same amount.
	if a.X >= b.X {
		t.Errorf("a.X = %v, b.X = %v, want a left of b", a.X, b.X)
	}
	if math.Abs(a.X+b.X) > 1e-9 {
		t.Errorf("push not symmetric: a.X = %v, b.X = %v", a.X, b.X)
	}
}

func TestFSA_Gaps(t *testing.T) {
	tests := []struct {
		name    string
		centers []geometry.Point
	}{
		{"row", []geometry.Point{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(20, 0)}},
		{"diagonal", []geometry.Point{geometry.Pt(0, 0), geometry.Pt(20, 20), geometry.Pt(40, 40)}},
		{"column", []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 15), geometry.Pt(2, 30)}},
		{"apart", []geometry.Point{geometry.Pt(0, 0), geometry.Pt(100, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := NewFSA(DefaultFSAParams())
			res, err := f.Compute(context.Background(), squares(50, tt.centers...))
			if err != nil {
				t.Fatalf("Compute() error: %v", err)
			}
			if len(res.Rects) != len(tt.centers) {
				t.Fatalf("got %d rects, want %d", len(res.Rects), len(tt.centers))
			}
			assertGaps(t, res.Rects, 10, 10)
		})
	}
}

// crowd places n rectangles of mixed sizes in a square much smaller than
// their total area.
func crowd(seed uint64, n int) map[graph.VertexID]geometry.Rect {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make(map[graph.VertexID]geometry.Rect, n)
	for i := 0; i < n; i++ {
		c := geometry.Pt(rng.Float64()*200, rng.Float64()*200)
		sz := geometry.Size{Width: 10 + rng.Float64()*90, Height: 10 + rng.Float64()*60}
		out[graph.VertexID(i)] = geometry.RectFromCenter(c, sz)
	}
	return out
}

func TestFSA_DenseInputResolves(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3, 7, 42} {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			p := DefaultFSAParams()
			f, _ := NewFSA(p)
			in := crowd(seed, 60)
			res, err := f.Compute(context.Background(), in)
			if err != nil {
				t.Fatalf("Compute() error: %v", err)
			}
			if res.Iterations >= p.MaxIterations {
				t.Errorf("Iterations = %d, want fewer than %d", res.Iterations, p.MaxIterations)
			}
			if res.Unresolved != 0 {
				t.Errorf("Unresolved = %d, want 0", res.Unresolved)
			}
			assertGaps(t, res.Rects, p.HorizontalGap, p.VerticalGap)
			for id, r := range in {
				if res.Rects[id].Size() != r.Size() {
					t.Errorf("rect %d size = %v, want %v", id, res.Rects[id].Size(), r.Size())
				}
			}
		})
	}
}

func TestFSA_ReportsUnresolvedAtCap(t *testing.T) {
	p := DefaultFSAParams()
	p.MaxIterations = 1
	f, _ := NewFSA(p)
	// Stacked vertically, so a single horizontal pass leaves them alone.
	res, err := f.Compute(context.Background(), squares(50, geometry.Pt(0, 0), geometry.Pt(0, 20)))
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", res.Iterations)
	}
	if res.Unresolved != 1 {
		t.Errorf("Unresolved = %d, want 1", res.Unresolved)
	}
}

func TestFSA_KeepsSeparatedInput(t *testing.T) {
	f, _ := NewFSA(DefaultFSAParams())
	in := squares(50, geometry.Pt(0, 0), geometry.Pt(100, 0))
	res, _ := f.Compute(context.Background(), in)
	for id, r := range in {
		if res.Rects[id] != r {
			t.Errorf("rect %d = %v, want %v", id, res.Rects[id], r)
		}
	}
}

func TestFSA_DoesNotMutateInput(t *testing.T) {
	f, _ := NewFSA(DefaultFSAParams())
	in := squares(50, geometry.Pt(0, 0), geometry.Pt(5, 5))
	want := squares(50, geometry.Pt(0, 0), geometry.Pt(5, 5))
	if _, err := f.Compute(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	for id, r := range want {
		if in[id] != r {
			t.Errorf("input rect %d changed to %v", id, in[id])
		}
	}
}

func TestFSA_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f, _ := NewFSA(DefaultFSAParams())
	in := squares(50, geometry.Pt(0, 0), geometry.Pt(0, 0))
	res, err := f.Compute(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if res.Rects[1] != in[1] {
		t.Errorf("rect moved after cancellation: %v", res.Rects[1])
	}
}

func TestOneWay_MovesOnlyForward(t *testing.T) {
	for _, way := range []Way{WayHorizontal, WayVertical} {
		t.Run(way.String(), func(t *testing.T) {
			p := DefaultOneWayParams()
			p.Way = way
			o, err := NewOneWay(p)
			if err != nil {
				t.Fatal(err)
			}
			in := squares(50, geometry.Pt(0, 0), geometry.Pt(10, 10), geometry.Pt(20, 20))
			res, err := o.Compute(context.Background(), in)
			if err != nil {
				t.Fatal(err)
			}
			if res.Rects[0] != in[0] {
				t.Errorf("first rect moved: %v", res.Rects[0])
			}
			for id, r := range in {
				got, old := res.Rects[id].Center(), r.Center()
				switch way {
				case WayHorizontal:
					if got.Y != old.Y || got.X < old.X {
						t.Errorf("rect %d moved from %v to %v", id, old, got)
					}
				case WayVertical:
					if got.X != old.X || got.Y < old.Y {
						t.Errorf("rect %d moved from %v to %v", id, old, got)
					}
				}
			}
			assertGaps(t, res.Rects, 10, 10)
		})
	}
}

func TestOneWay_CoincidentTieBreak(t *testing.T) {
	o, _ := NewOneWay(DefaultOneWayParams())
	res, _ := o.Compute(context.Background(), squares(50, geometry.Pt(0, 0), geometry.Pt(0, 0)))
	if got := res.Rects[0].Center(); got != geometry.Pt(0, 0) {
		t.Errorf("lower ID moved to %v", got)
	}
	if got := res.Rects[1].Center().X; got < 60-1e-9 {
		t.Errorf("higher ID at x = %v, want >= 60", got)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		valid  bool
	}{
		{"fsa defaults", DefaultFSAParams(), true},
		{"fsa negative gap", FSAParams{HorizontalGap: -1}, false},
		{"fsa negative iterations", FSAParams{MaxIterations: -1}, false},
		{"oneway defaults", DefaultOneWayParams(), true},
		{"oneway bad way", OneWayParams{Way: Way(7)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err == nil) != tt.valid {
				t.Fatalf("Validate() = %v, want valid %v", err, tt.valid)
			}
			if err != nil && !gerrors.Is(err, gerrors.ErrCodeInvalidConfiguration) {
				t.Errorf("Validate() code = %v, want %v", gerrors.GetCode(err), gerrors.ErrCodeInvalidConfiguration)
			}
		})
	}
}

func TestWay_Text(t *testing.T) {
	var w Way
	if err := w.UnmarshalText([]byte("Vertical")); err != nil || w != WayVertical {
		t.Errorf("UnmarshalText(Vertical) = %v, %v", w, err)
	}
	if err := w.UnmarshalText([]byte("diagonal")); err == nil {
		t.Error("UnmarshalText(diagonal) succeeded, want error")
	}
}
