package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

func placed() *graph.Graph {
	g := graph.New()
	a := graph.NewVertex("a")
	a.Position, a.Size = geometry.Pt(50, 20), geometry.Size{Width: 100, Height: 40}
	b := graph.NewVertex("b")
	b.Position, b.Size = geometry.Pt(50, 120), geometry.Size{Width: 100, Height: 40}
	b.Shape = geometry.ShapeEllipse
	g.AddVertex(a)
	g.AddVertex(b)
	id, _ := g.Connect(0, 1)
	g.SetRoutingPoints(id, []geometry.Point{geometry.Pt(50, 40), geometry.Pt(50, 100)})
	g.Connect(0, 0)
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(placed(), Options{})

	tests := []struct {
		name string
		want string
	}{
		{"bounding box", `bb="0,0,100.00,140.00"`},
		// y is mirrored: a sits at the top of the box.
		{"pinned a", `"a" [label="a", shape=box, pos="50.00,120.00!", width=1.3889, height=0.5556]`},
		{"ellipse b", `shape=ellipse, pos="50.00,20.00!"`},
		{"edge spline", `"a" -> "b" [pos="50.00,100.00 50.00,100.00 50.00,40.00 50.00,40.00"]`},
		{"plain self-loop", `"a" -> "a";`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(dot, tt.want) {
				t.Errorf("ToDOT() missing %s\n%s", tt.want, dot)
			}
		})
	}
}

func TestToDOT_SelfLoopGlyph(t *testing.T) {
	sl := geometry.DefaultSelfLoopParams()
	dot := ToDOT(placed(), Options{SelfLoop: &sl})
	if strings.Contains(dot, `"a" -> "a";`) {
		t.Error("self-loop has no pinned geometry")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	g := graph.New()
	v := graph.NewVertex("x")
	v.Label = "Parser"
	v.Meta = graph.Metadata{"lang": "go"}
	g.AddVertex(v)

	dot := ToDOT(g, Options{Detailed: true})
	if !strings.Contains(dot, `label="Parser\nid: 0\nlang: go"`) {
		t.Errorf("ToDOT() label not detailed:\n%s", dot)
	}
	if strings.Contains(dot, "pos=") {
		t.Error("unplaced vertex was pinned")
	}
}

func TestFullRoute(t *testing.T) {
	g := placed()
	a, _ := g.Vertex(0)
	b, _ := g.Vertex(1)

	bends := []geometry.Point{geometry.Pt(50, 70)}
	got := fullRoute(a, b, bends)
	if len(got) != 3 {
		t.Fatalf("fullRoute() = %v, want 3 points", got)
	}
	if geometry.Distance(got[0], geometry.Pt(50, 40)) > 1e-9 || geometry.Distance(got[2], geometry.Pt(50, 100)) > 1e-9 {
		t.Errorf("fullRoute() ends = %v, %v, want (50,40), (50,100)", got[0], got[2])
	}

	exact := []geometry.Point{geometry.Pt(50, 40), geometry.Pt(50, 100)}
	if got := fullRoute(a, b, exact); len(got) != 2 {
		t.Errorf("fullRoute() of a full route = %v, want unchanged", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
