package document

import (
	"github.com/planviz/planviz/viewer-go/internal/geometry"
	"github.com/planviz/planviz/viewer-go/internal/typeid"
)

const sampleCellSize = 150

// NewSampleSnapshot returns a small, deterministic snapshot for mode: one
// square obstacle in the middle of the canvas between the default start and
// goal. It lets a surface draw something before the backend answers.
func NewSampleSnapshot(mode Mode) *Snapshot {
	obstacle := Polygon{{250, 250}, {350, 250}, {350, 350}, {250, 350}}

	snap := &Snapshot{
		ID:        typeid.NewSnapshotID(),
		Mode:      mode,
		Seed:      12345,
		Obstacles: []Polygon{obstacle},
		Start:     Point{X: 50, Y: 300},
		Goal:      Point{X: 550, Y: 300},
	}

	switch mode {
	case ModeLineSweep:
		sampleLineSweep(snap)
	case ModeQuadtree:
		sampleQuadtree(snap, obstacle)
	case ModeVisibility:
		sampleVisibility(snap)
	}

	return snap
}

func sampleLineSweep(snap *Snapshot) {
	snap.Faces = []Polygon{
		{{0, 0}, {250, 0}, {250, 600}, {0, 600}},
		{{250, 0}, {350, 0}, {350, 250}, {250, 250}},
		{{250, 350}, {350, 350}, {350, 600}, {250, 600}},
		{{350, 0}, {600, 0}, {600, 600}, {350, 600}},
	}

	graph := &Graph{}
	for i, face := range snap.Faces {
		graph.Nodes = append(graph.Nodes, Node{ID: i, Point: geometry.Centroid(face)})
	}
	for _, pair := range [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}} {
		graph.Edges = append(graph.Edges, Edge{
			From: graph.Nodes[pair[0]].Point,
			To:   graph.Nodes[pair[1]].Point,
		})
	}
	snap.Graph = graph

	snap.MapGraph = &Graph{}
	verticals := []Edge{
		{From: Point{X: 250, Y: 0}, To: Point{X: 250, Y: 250}},
		{From: Point{X: 250, Y: 350}, To: Point{X: 250, Y: 600}},
		{From: Point{X: 350, Y: 0}, To: Point{X: 350, Y: 250}},
		{From: Point{X: 350, Y: 350}, To: Point{X: 350, Y: 600}},
		{From: Point{X: 250, Y: 250}, To: Point{X: 350, Y: 250}},
		{From: Point{X: 350, Y: 250}, To: Point{X: 350, Y: 350}},
		{From: Point{X: 350, Y: 350}, To: Point{X: 250, Y: 350}},
		{From: Point{X: 250, Y: 350}, To: Point{X: 250, Y: 250}},
	}
	snap.MapGraph.Edges = verticals
	seen := make(map[Point]bool)
	for _, e := range verticals {
		for _, p := range []Point{e.From, e.To} {
			if !seen[p] {
				seen[p] = true
				snap.MapGraph.Nodes = append(snap.MapGraph.Nodes, Node{ID: len(snap.MapGraph.Nodes), Point: p})
			}
		}
	}

	snap.PathIDs = []int{0, 1, 3}
	for _, id := range snap.PathIDs {
		snap.Path = append(snap.Path, graph.Nodes[id].Point)
	}
}

func sampleQuadtree(snap *Snapshot, obstacle Polygon) {
	const perRow = CanvasWidth / sampleCellSize
	b := obstacle.Bound()

	free := make(map[int]Point)
	graph := &Graph{}
	for row := 0; row < perRow; row++ {
		for col := 0; col < perRow; col++ {
			x0, y0 := float64(col*sampleCellSize), float64(row*sampleCellSize)
			x1, y1 := x0+sampleCellSize, y0+sampleCellSize
			obstructed := x0 < b.Max[0] && x1 > b.Min[0] && y0 < b.Max[1] && y1 > b.Min[1]
			snap.Cells = append(snap.Cells, Cell{
				Polygon:    Polygon{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}},
				Obstructed: obstructed,
			})
			if !obstructed {
				id := row*perRow + col
				center := Point{X: x0 + sampleCellSize/2, Y: y0 + sampleCellSize/2}
				free[id] = center
				graph.Nodes = append(graph.Nodes, Node{ID: id, Point: center})
			}
		}
	}

	for _, n := range graph.Nodes {
		col := n.ID % perRow
		if right, ok := free[n.ID+1]; ok && col < perRow-1 {
			graph.Edges = append(graph.Edges, Edge{From: n.Point, To: right})
		}
		if below, ok := free[n.ID+perRow]; ok {
			graph.Edges = append(graph.Edges, Edge{From: n.Point, To: below})
		}
	}
	snap.Graph = graph

	snap.PathIDs = []int{8, 12, 13, 14, 15, 11}
	for _, id := range snap.PathIDs {
		snap.Path = append(snap.Path, free[id])
	}
}

func sampleVisibility(snap *Snapshot) {
	corners := []Point{{X: 250, Y: 250}, {X: 350, Y: 250}, {X: 350, Y: 350}, {X: 250, Y: 350}}

	graph := &Graph{
		Nodes: []Node{{ID: 0, Point: snap.Start}, {ID: 1, Point: snap.Goal}},
	}
	for i, c := range corners {
		graph.Nodes = append(graph.Nodes, Node{ID: i + 2, Point: c})
	}
	link := func(a, b Point) {
		graph.Edges = append(graph.Edges, Edge{From: a, To: b})
	}
	link(snap.Start, corners[0])
	link(snap.Start, corners[3])
	link(snap.Goal, corners[1])
	link(snap.Goal, corners[2])
	for i := range corners {
		link(corners[i], corners[(i+1)%len(corners)])
	}
	snap.Graph = graph

	snap.Path = []Point{snap.Start, corners[3], corners[2], snap.Goal}
}
