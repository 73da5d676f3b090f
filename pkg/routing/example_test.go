package routing_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/routing"
)

func ExampleSimple() {
	g := graph.New()
	for i, x := range []float64{0, 200} {
		v := graph.NewVertex(fmt.Sprint(i))
		v.Position = geometry.Pt(x, 0)
		v.Size = geometry.Size{Width: 40, Height: 40}
		g.AddVertex(v)
	}
	id, _ := g.Connect(0, 1)

	r, _ := routing.NewSimple(routing.DefaultSimpleParams())
	res, _ := r.Compute(context.Background(), routing.Input{Graph: g})
	for _, p := range res.Routes[id] {
		fmt.Printf("(%.0f, %.0f)\n", p.X, p.Y)
	}
	// Output:
	// (20, 0)
	// (170, 0)
}
