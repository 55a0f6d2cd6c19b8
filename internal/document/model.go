package document

import (
	"fmt"

	"github.com/planviz/planviz/viewer-go/internal/geometry"
)

type (
	Point   = geometry.Point
	Polygon = geometry.Polygon
)

// Canvas size shared by every view and by every backend request.
const (
	CanvasWidth  = 600
	CanvasHeight = 600
)

// Mode selects the planning structure the backend derives.
type Mode string

const (
	ModeLineSweep  Mode = "line_sweep"
	ModeQuadtree   Mode = "quadtree"
	ModeVisibility Mode = "visibility"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeLineSweep, ModeQuadtree, ModeVisibility}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLineSweep, ModeQuadtree, ModeVisibility:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Endpoint names one of the two draggable markers.
type Endpoint string

const (
	Start Endpoint = "start"
	Goal  Endpoint = "goal"
)

// Endpoints in marker paint order.
var Endpoints = []Endpoint{Start, Goal}

func ParseEndpoint(s string) (Endpoint, error) {
	switch Endpoint(s) {
	case Start, Goal:
		return Endpoint(s), nil
	}
	return "", fmt.Errorf("unknown endpoint %q", s)
}

// ViewParameters are the user-controlled generation inputs. Only Start and
// Goal change during a drag; every other field shapes the obstacle field and
// the planning structure.
type ViewParameters struct {
	NumObstacles int     `json:"numObstacles" yaml:"num_obstacles"`
	MaxVertices  int     `json:"maxVertices" yaml:"max_vertices"`
	ObstacleSize float64 `json:"obstacleSize" yaml:"obstacle_size"`
	MaxDepth     int     `json:"maxDepth,omitempty" yaml:"max_depth"`
	MinSize      float64 `json:"minSize,omitempty" yaml:"min_size"`
	Seed         int64   `json:"seed" yaml:"seed"`
	Start        Point   `json:"start" yaml:"start"`
	Goal         Point   `json:"goal" yaml:"goal"`
}

// Endpoint returns the parameter point for ep.
func (p ViewParameters) Endpoint(ep Endpoint) Point {
	if ep == Goal {
		return p.Goal
	}
	return p.Start
}

// WithEndpoint returns a copy with the point for ep replaced.
func (p ViewParameters) WithEndpoint(ep Endpoint, pt Point) ViewParameters {
	if ep == Goal {
		p.Goal = pt
	} else {
		p.Start = pt
	}
	return p
}

// StructureEqual reports whether both parameter sets generate the same
// obstacles and planning structure, i.e. they differ at most in start/goal.
func (p ViewParameters) StructureEqual(other ViewParameters) bool {
	p.Start, p.Goal = Point{}, Point{}
	other.Start, other.Goal = Point{}, Point{}
	return p == other
}

// Node is a graph vertex placed at a centroid or obstacle corner.
type Node struct {
	ID    int   `json:"id"`
	Point Point `json:"point"`
}

// Edge is a resolved graph edge.
type Edge struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Graph is a resolved planning graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node looks up a node by ID.
func (g *Graph) Node(id int) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Cell is a quadtree leaf.
type Cell struct {
	Polygon    Polygon `json:"polygon"`
	Obstructed bool    `json:"obstructed"`
}

// Snapshot is the normalized view model of one backend response. It is
// created by a successful fetch and never mutated afterwards.
type Snapshot struct {
	ID   string `json:"id"`
	Mode Mode   `json:"mode"`
	Seq  uint64 `json:"seq"`
	Seed int64  `json:"seed"`

	Obstacles []Polygon `json:"obstacles"`
	Start     Point     `json:"start"`
	Goal      Point     `json:"goal"`

	// Line-sweep decomposition.
	Faces    []Polygon `json:"faces,omitempty"`
	MapGraph *Graph    `json:"mapGraph,omitempty"`

	// Quadtree decomposition.
	Cells []Cell `json:"cells,omitempty"`

	// Face graph, quadtree graph or visibility graph.
	Graph *Graph `json:"graph,omitempty"`

	// PathIDs is set when the backend answers with node identifiers; Path is
	// always the resolved polyline. An empty Path means no path was found.
	PathIDs []int   `json:"pathIds,omitempty"`
	Path    []Point `json:"path,omitempty"`
}

// Endpoint returns the snapshot's start or goal.
func (s *Snapshot) Endpoint(ep Endpoint) Point {
	if ep == Goal {
		return s.Goal
	}
	return s.Start
}

// HasPath reports whether a path overlay should be drawn.
func (s *Snapshot) HasPath() bool {
	return s != nil && len(s.Path) > 1
}
