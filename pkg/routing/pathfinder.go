package routing

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"strings"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Heuristic is the A* distance estimate on the grid.
type Heuristic int

const (
	HeuristicManhattan Heuristic = iota
	HeuristicMaxDXDY
	HeuristicDiagonal
	HeuristicEuclidean
	// HeuristicEuclideanNoSqr is the squared euclidean distance. It is not
	// admissible but expands far fewer cells.
	HeuristicEuclideanNoSqr
)

var heuristicNames = map[Heuristic]string{
	HeuristicManhattan:      "manhattan",
	HeuristicMaxDXDY:        "maxdxdy",
	HeuristicDiagonal:       "diagonal",
	HeuristicEuclidean:      "euclidean",
	HeuristicEuclideanNoSqr: "euclidean-nosqr",
}

func (h Heuristic) String() string {
	if s, ok := heuristicNames[h]; ok {
		return s
	}
	return fmt.Sprintf("Heuristic(%d)", int(h))
}

func (h Heuristic) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Heuristic) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for k, v := range heuristicNames {
		if v == name {
			*h = k
			return nil
		}
	}
	return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "unknown heuristic %q", string(b))
}

// PathfinderParams configures [Pathfinder].
type PathfinderParams struct {
	// HorizontalGridSize and VerticalGridSize are the grid spacing.
	HorizontalGridSize float64 `toml:"horizontal_grid_size" json:"horizontal_grid_size"`
	VerticalGridSize   float64 `toml:"vertical_grid_size" json:"vertical_grid_size"`
	// SideGridOffset extends the grid beyond the routing area on every side.
	SideGridOffset float64 `toml:"side_grid_offset" json:"side_grid_offset"`
	// InflationMargin grows every vertex rectangle before cells are blocked.
	InflationMargin       float64   `toml:"inflation_margin" json:"inflation_margin"`
	UseDiagonals          bool      `toml:"use_diagonals" json:"use_diagonals"`
	Heuristic             Heuristic `toml:"heuristic" json:"heuristic"`
	HeuristicWeight       float64   `toml:"heuristic_weight" json:"heuristic_weight"`
	PunishChangeDirection bool      `toml:"punish_change_direction" json:"punish_change_direction"`
	UseTieBreaker         bool      `toml:"use_tie_breaker" json:"use_tie_breaker"`
	// SearchTriesLimit caps the number of expanded cells per edge.
	SearchTriesLimit int `toml:"search_tries_limit" json:"search_tries_limit"`
}

// DefaultPathfinderParams returns the default grid routing parameters.
func DefaultPathfinderParams() PathfinderParams {
	return PathfinderParams{
		HorizontalGridSize: 100,
		VerticalGridSize:   100,
		SideGridOffset:     200,
		InflationMargin:    5,
		UseDiagonals:       true,
		Heuristic:          HeuristicManhattan,
		HeuristicWeight:    2,
		UseTieBreaker:      true,
		SearchTriesLimit:   50000,
	}
}

func (p PathfinderParams) Clone() Params { return p }

func (p PathfinderParams) Validate() error {
	if _, ok := heuristicNames[p.Heuristic]; !ok {
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "pathfinder.heuristic is unknown")
	}
	return gerrors.First(
		gerrors.ValidatePositive("pathfinder.horizontal_grid_size", p.HorizontalGridSize),
		gerrors.ValidatePositive("pathfinder.vertical_grid_size", p.VerticalGridSize),
		gerrors.ValidateNonNegative("pathfinder.side_grid_offset", p.SideGridOffset),
		gerrors.ValidateNonNegative("pathfinder.inflation_margin", p.InflationMargin),
		gerrors.ValidateNonNegative("pathfinder.heuristic_weight", p.HeuristicWeight),
		gerrors.ValidateCount("pathfinder.search_tries_limit", p.SearchTriesLimit),
	)
}

// Pathfinder lays a grid over the routing area, blocks every grid point
// covered by an inflated vertex rectangle and connects the grid points
// nearest to both endpoints with A*. Runs of points in one direction are
// collapsed to their ends. When no path exists within SearchTriesLimit
// expansions the edge gets the direct route and a warning.
type Pathfinder struct {
	params PathfinderParams
}

// NewPathfinder validates p and returns a grid router.
func NewPathfinder(p PathfinderParams) (*Pathfinder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Pathfinder{params: p}, nil
}

func (pf *Pathfinder) Incremental() bool { return true }

func (pf *Pathfinder) Compute(ctx context.Context, in Input) (*Result, error) {
	edges := routable(in.Graph)
	res := newResult(len(edges))
	if len(edges) == 0 {
		return res, nil
	}
	grid := pf.newGrid(in)
	for _, e := range edges {
		if cancelled(ctx) {
			res.Cancelled = true
			break
		}
		route, warn, err := pf.route(in, grid, e)
		if err != nil {
			return nil, err
		}
		res.Routes[e.ID] = route
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
		}
	}
	return res, nil
}

// ComputeSingle routes one edge. An edge without a grid path gets the
// direct route and an error with code UNROUTABLE_EDGE.
func (pf *Pathfinder) ComputeSingle(ctx context.Context, in Input, id graph.EdgeID) ([]geometry.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := in.edge(id)
	if err != nil {
		return nil, err
	}
	route, warn, err := pf.route(in, pf.newGrid(in), e)
	if err != nil {
		return nil, err
	}
	if warn != nil {
		return route, gerrors.New(warn.Code, "%s", warn.Message)
	}
	return route, nil
}

func (pf *Pathfinder) route(in Input, gr *grid, e graph.Edge) ([]geometry.Point, *Warning, error) {
	src, dst, err := in.ends(e)
	if err != nil {
		return nil, nil, err
	}
	start, goal := gr.nearest(src.center()), gr.nearest(dst.center())
	if start == goal {
		return attach(src, dst, nil, 0), nil, nil
	}

	// Cells covered only by the endpoints themselves stay open.
	blocked := func(c cell) bool {
		if c == start || c == goal {
			return false
		}
		for _, id := range gr.owners[gr.index(c)] {
			if id != e.Source && id != e.Target {
				return true
			}
		}
		return false
	}

	cells, ok := pf.search(gr, start, goal, blocked)
	if !ok {
		return attach(src, dst, nil, 0), &Warning{
			Edge:    e.ID,
			Code:    gerrors.ErrCodeUnroutableEdge,
			Message: fmt.Sprintf("no grid path from vertex %d to vertex %d", e.Source, e.Target),
		}, nil
	}

	var waypoints []geometry.Point
	for _, c := range collapse(cells) {
		p := gr.point(c)
		if src.rect.Contains(p) || dst.rect.Contains(p) {
			continue
		}
		waypoints = append(waypoints, p)
	}
	route := attach(src, dst, waypoints, 0)

	// The open start and goal cells and the attach legs are not covered by
	// the search, so check the assembled polyline once more.
	if _, ob, hit := firstHit(route, in.obstacles(e.Source, e.Target)); hit {
		return attach(src, dst, nil, 0), &Warning{
			Edge:    e.ID,
			Code:    gerrors.ErrCodeUnroutableEdge,
			Message: fmt.Sprintf("grid path from vertex %d to vertex %d crosses %v", e.Source, e.Target, ob),
		}, nil
	}
	return route, nil, nil
}

// cell is a grid point index.
type cell struct{ col, row int }

type grid struct {
	origin     geometry.Point
	dx, dy     float64
	cols, rows int
	owners     [][]graph.VertexID // vertices covering each grid point
}

func (pf *Pathfinder) newGrid(in Input) *grid {
	area := in.area().Inflate(pf.params.SideGridOffset, pf.params.SideGridOffset)
	gr := &grid{
		origin: geometry.Pt(area.X, area.Y),
		dx:     pf.params.HorizontalGridSize,
		dy:     pf.params.VerticalGridSize,
		cols:   int(math.Ceil(area.Width/pf.params.HorizontalGridSize)) + 1,
		rows:   int(math.Ceil(area.Height/pf.params.VerticalGridSize)) + 1,
	}
	gr.owners = make([][]graph.VertexID, gr.cols*gr.rows)

	m := pf.params.InflationMargin
	for _, id := range in.Graph.VertexIDs() {
		ep, err := in.endpoint(id)
		if err != nil {
			continue
		}
		// A grid point is covered when the cell around it overlaps the
		// inflated box, so boxes smaller than a cell still block.
		r := ep.rect.Inflate(m, m)
		c0 := max(0, int(math.Floor((r.X-gr.dx/2-gr.origin.X)/gr.dx)))
		c1 := min(gr.cols-1, int(math.Ceil((r.Right()+gr.dx/2-gr.origin.X)/gr.dx)))
		r0 := max(0, int(math.Floor((r.Y-gr.dy/2-gr.origin.Y)/gr.dy)))
		r1 := min(gr.rows-1, int(math.Ceil((r.Bottom()+gr.dy/2-gr.origin.Y)/gr.dy)))
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				c := cell{col, row}
				if gr.cellRect(c).Intersects(r) {
					i := gr.index(c)
					gr.owners[i] = append(gr.owners[i], id)
				}
			}
		}
	}
	return gr
}

func (gr *grid) index(c cell) int { return c.row*gr.cols + c.col }

// cellRect is the dx by dy area centred on the grid point of c.
func (gr *grid) cellRect(c cell) geometry.Rect {
	p := gr.point(c)
	return geometry.Rect{X: p.X - gr.dx/2, Y: p.Y - gr.dy/2, Width: gr.dx, Height: gr.dy}
}

func (gr *grid) inside(c cell) bool {
	return c.col >= 0 && c.row >= 0 && c.col < gr.cols && c.row < gr.rows
}

func (gr *grid) point(c cell) geometry.Point {
	return geometry.Pt(gr.origin.X+float64(c.col)*gr.dx, gr.origin.Y+float64(c.row)*gr.dy)
}

func (gr *grid) nearest(p geometry.Point) cell {
	c := cell{
		col: int(math.Round((p.X - gr.origin.X) / gr.dx)),
		row: int(math.Round((p.Y - gr.origin.Y) / gr.dy)),
	}
	c.col = min(max(c.col, 0), gr.cols-1)
	c.row = min(max(c.row, 0), gr.rows-1)
	return c
}

var (
	straightMoves = []cell{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	diagonalMoves = []cell{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
)

// node is a state of the A* search.
type node struct {
	cell   cell
	g, h   float64
	f      float64
	move   cell
	parent *node
	index  int
}

// nodeQueue is a min-heap of nodes by f, then h, then cell position.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	if q[i].cell.row != q[j].cell.row {
		return q[i].cell.row < q[j].cell.row
	}
	return q[i].cell.col < q[j].cell.col
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*q = old[:len(old)-1]
	return n
}

// search runs A* from start to goal and returns the cells of the path.
func (pf *Pathfinder) search(gr *grid, start, goal cell, blocked func(cell) bool) ([]cell, bool) {
	moves := straightMoves
	if pf.params.UseDiagonals {
		moves = append(append([]cell(nil), straightMoves...), diagonalMoves...)
	}

	open := &nodeQueue{}
	nodes := map[cell]*node{}
	closed := map[cell]bool{}
	first := &node{cell: start, h: pf.heuristic(start, goal)}
	first.f = first.h
	heap.Push(open, first)
	nodes[start] = first

	for tries := 0; open.Len() > 0; tries++ {
		if tries >= pf.params.SearchTriesLimit {
			return nil, false
		}
		cur := heap.Pop(open).(*node)
		if cur.cell == goal {
			return path(cur), true
		}
		closed[cur.cell] = true

		for _, m := range moves {
			next := cell{cur.cell.col + m.col, cur.cell.row + m.row}
			if !gr.inside(next) || closed[next] || blocked(next) {
				continue
			}
			cost := 1.0
			if m.col != 0 && m.row != 0 {
				cost = math.Sqrt2
			}
			if pf.params.PunishChangeDirection && cur.parent != nil && m != cur.move {
				cost++
			}
			g := cur.g + cost
			if n, ok := nodes[next]; ok {
				if g < n.g {
					n.g, n.f, n.parent, n.move = g, g+n.h, cur, m
					heap.Fix(open, n.index)
				}
				continue
			}
			n := &node{cell: next, g: g, h: pf.heuristic(next, goal), move: m, parent: cur}
			n.f = g + n.h
			heap.Push(open, n)
			nodes[next] = n
		}
	}
	return nil, false
}

func (pf *Pathfinder) heuristic(a, b cell) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dy := math.Abs(float64(a.row - b.row))
	var h float64
	switch pf.params.Heuristic {
	case HeuristicMaxDXDY:
		h = math.Max(dx, dy)
	case HeuristicDiagonal:
		lo := math.Min(dx, dy)
		h = math.Sqrt2*lo + (math.Max(dx, dy) - lo)
	case HeuristicEuclidean:
		h = math.Hypot(dx, dy)
	case HeuristicEuclideanNoSqr:
		h = dx*dx + dy*dy
	default:
		h = dx + dy
	}
	h *= pf.params.HeuristicWeight
	if pf.params.UseTieBreaker {
		h *= 1 + 1.0/1000
	}
	return h
}

func path(n *node) []cell {
	var out []cell
	for ; n != nil; n = n.parent {
		out = append(out, n.cell)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// collapse keeps only the cells where the path changes direction, plus
// both ends.
func collapse(cells []cell) []cell {
	if len(cells) < 3 {
		return cells
	}
	out := []cell{cells[0]}
	for i := 1; i < len(cells)-1; i++ {
		in := cell{cells[i].col - cells[i-1].col, cells[i].row - cells[i-1].row}
		next := cell{cells[i+1].col - cells[i].col, cells[i+1].row - cells[i].row}
		if in != next {
			out = append(out, cells[i])
		}
	}
	return append(out, cells[len(cells)-1])
}
