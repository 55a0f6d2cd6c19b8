package planapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/geometry"
)

// seedValue accepts the seed as a JSON number or a numeric string; the
// backend echoes it either way depending on the mode.
type seedValue int64

func (s *seedValue) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if str == "" || str == "null" {
		return nil
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return fmt.Errorf("seed %q: %w", str, err)
	}
	*s = seedValue(v)
	return nil
}

// nodeRef is an edge endpoint given either as a node id or as an [x,y] pair.
type nodeRef struct {
	id      int
	point   orb.Point
	isPoint bool
}

func (r *nodeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		r.isPoint = true
		return json.Unmarshal(b, &r.point)
	}
	return json.Unmarshal(b, &r.id)
}

type centroidNode struct {
	ID       int       `json:"id"`
	Centroid orb.Point `json:"centroid"`
}

type refEdge struct {
	Source nodeRef `json:"source"`
	Target nodeRef `json:"target"`
}

type centroidGraph struct {
	Nodes []centroidNode `json:"nodes"`
	Edges []refEdge      `json:"edges"`
}

type pointEdge struct {
	Source orb.Point `json:"source"`
	Target orb.Point `json:"target"`
}

type lineSweepResponse struct {
	Obstacles []document.Polygon `json:"obstacles"`
	MapGraph  struct {
		Nodes []struct {
			Point orb.Point `json:"point"`
		} `json:"nodes"`
		Edges []pointEdge `json:"edges"`
	} `json:"map_graph"`
	Faces     []document.Polygon `json:"faces"`
	FaceGraph centroidGraph      `json:"face_graph"`
	FacePath  []int              `json:"face_path"`
	Start     document.Point     `json:"start"`
	Goal      document.Point     `json:"goal"`
	Seed      seedValue          `json:"seed"`
}

type quadtreeResponse struct {
	Obstacles []document.Polygon `json:"obstacles"`
	Cells     []struct {
		Polygon    document.Polygon `json:"polygon"`
		Obstructed bool             `json:"obstructed"`
	} `json:"cells"`
	Graph  centroidGraph  `json:"graph"`
	Path   []int          `json:"path"`
	Start  document.Point `json:"start"`
	Goal   document.Point `json:"goal"`
	Params struct {
		Seed seedValue `json:"seed"`
	} `json:"params"`
}

type visibilityResponse struct {
	Obstacles []document.Polygon `json:"obstacles"`
	Nodes     []document.Point   `json:"nodes"`
	Links     []struct {
		Source int `json:"source"`
		Target int `json:"target"`
	} `json:"links"`
	Path  []orb.Point    `json:"path"`
	Start document.Point `json:"start"`
	Goal  document.Point `json:"goal"`
	Seed  seedValue      `json:"seed"`
}

// decode turns a validated response body into a snapshot.
func decode(mode document.Mode, body []byte) (*document.Snapshot, error) {
	switch mode {
	case document.ModeLineSweep:
		var resp lineSweepResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}
		return resp.normalize()
	case document.ModeQuadtree:
		var resp quadtreeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}
		return resp.normalize()
	case document.ModeVisibility:
		var resp visibilityResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}
		return resp.normalize()
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

func (r *lineSweepResponse) normalize() (*document.Snapshot, error) {
	graph, err := r.FaceGraph.resolve()
	if err != nil {
		return nil, fmt.Errorf("face graph: %w", err)
	}
	path, err := resolvePath(graph, r.FacePath)
	if err != nil {
		return nil, fmt.Errorf("face path: %w", err)
	}

	mapGraph := &document.Graph{}
	for i, n := range r.MapGraph.Nodes {
		mapGraph.Nodes = append(mapGraph.Nodes, document.Node{ID: i, Point: geometry.FromOrb(n.Point)})
	}
	for _, e := range r.MapGraph.Edges {
		mapGraph.Edges = append(mapGraph.Edges, document.Edge{
			From: geometry.FromOrb(e.Source),
			To:   geometry.FromOrb(e.Target),
		})
	}

	return &document.Snapshot{
		Mode:      document.ModeLineSweep,
		Seed:      int64(r.Seed),
		Obstacles: r.Obstacles,
		Start:     r.Start,
		Goal:      r.Goal,
		Faces:     r.Faces,
		MapGraph:  mapGraph,
		Graph:     graph,
		PathIDs:   r.FacePath,
		Path:      path,
	}, nil
}

func (r *quadtreeResponse) normalize() (*document.Snapshot, error) {
	graph, err := r.Graph.resolve()
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	path, err := resolvePath(graph, r.Path)
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}

	cells := make([]document.Cell, 0, len(r.Cells))
	for _, c := range r.Cells {
		cells = append(cells, document.Cell{Polygon: c.Polygon, Obstructed: c.Obstructed})
	}

	return &document.Snapshot{
		Mode:      document.ModeQuadtree,
		Seed:      int64(r.Params.Seed),
		Obstacles: r.Obstacles,
		Start:     r.Start,
		Goal:      r.Goal,
		Cells:     cells,
		Graph:     graph,
		PathIDs:   r.Path,
		Path:      path,
	}, nil
}

func (r *visibilityResponse) normalize() (*document.Snapshot, error) {
	graph := &document.Graph{}
	for i, n := range r.Nodes {
		graph.Nodes = append(graph.Nodes, document.Node{ID: i, Point: n})
	}
	for _, l := range r.Links {
		if l.Source < 0 || l.Source >= len(r.Nodes) || l.Target < 0 || l.Target >= len(r.Nodes) {
			return nil, fmt.Errorf("link %d-%d out of range (%d nodes)", l.Source, l.Target, len(r.Nodes))
		}
		graph.Edges = append(graph.Edges, document.Edge{From: r.Nodes[l.Source], To: r.Nodes[l.Target]})
	}

	var path []document.Point
	for _, p := range r.Path {
		path = append(path, geometry.FromOrb(p))
	}

	return &document.Snapshot{
		Mode:      document.ModeVisibility,
		Seed:      int64(r.Seed),
		Obstacles: r.Obstacles,
		Start:     r.Start,
		Goal:      r.Goal,
		Graph:     graph,
		Path:      path,
	}, nil
}

func (g *centroidGraph) resolve() (*document.Graph, error) {
	graph := &document.Graph{}
	byID := make(map[int]document.Point, len(g.Nodes))
	for _, n := range g.Nodes {
		p := geometry.FromOrb(n.Centroid)
		byID[n.ID] = p
		graph.Nodes = append(graph.Nodes, document.Node{ID: n.ID, Point: p})
	}

	lookup := func(ref nodeRef) (document.Point, error) {
		if ref.isPoint {
			return geometry.FromOrb(ref.point), nil
		}
		p, ok := byID[ref.id]
		if !ok {
			return document.Point{}, fmt.Errorf("unknown node %d", ref.id)
		}
		return p, nil
	}

	for _, e := range g.Edges {
		from, err := lookup(e.Source)
		if err != nil {
			return nil, err
		}
		to, err := lookup(e.Target)
		if err != nil {
			return nil, err
		}
		graph.Edges = append(graph.Edges, document.Edge{From: from, To: to})
	}
	return graph, nil
}

func resolvePath(graph *document.Graph, ids []int) ([]document.Point, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	path := make([]document.Point, 0, len(ids))
	for _, id := range ids {
		n, ok := graph.Node(id)
		if !ok {
			return nil, fmt.Errorf("unknown node %d", id)
		}
		path = append(path, n.Point)
	}
	return path, nil
}
