package engine

import (
	"strconv"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/geometry"
)

const (
	GridSpacing  = 50
	MarkerRadius = 8

	lineSweepNodeRadius  = 15
	quadtreeNodeRadius   = 12
	visibilityNodeRadius = 4
	mapNodeRadius        = 4
)

// NodeRadius is the drawn radius of graph nodes in mode. Graph edges and
// id-based paths stop at this distance from each node centroid.
func NodeRadius(mode document.Mode) float64 {
	switch mode {
	case document.ModeLineSweep:
		return lineSweepNodeRadius
	case document.ModeQuadtree:
		return quadtreeNodeRadius
	}
	return visibilityNodeRadius
}

var markerStyle = map[document.Endpoint]struct {
	fill  string
	label string
}{
	document.Start: {"green", "S"},
	document.Goal:  {"blue", "Z"},
}

func compileGrid() []DrawCommand {
	var cmds []DrawCommand
	line := func(a, b document.Point) {
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: LayerGrid, Path: segment(a, b),
			Stroke: "#ddd", StrokeWidth: 1,
		})
	}
	label := func(v int, x, y float64) {
		cmds = append(cmds, DrawCommand{
			Op: OpText, Layer: LayerGrid, Text: strconv.Itoa(v),
			X: x, Y: y, FontSize: 10, Fill: "#666", Align: "start",
		})
	}

	for x := 0; x <= document.CanvasWidth; x += GridSpacing {
		fx := float64(x)
		line(document.Point{X: fx}, document.Point{X: fx, Y: document.CanvasHeight})
		label(x, fx+2, 12)
	}
	for y := 0; y <= document.CanvasHeight; y += GridSpacing {
		fy := float64(y)
		line(document.Point{Y: fy}, document.Point{X: document.CanvasWidth, Y: fy})
		label(y, 2, fy-2)
	}
	return cmds
}

func obstacleCommands(layer Layer, obstacles []document.Polygon, fill string) []DrawCommand {
	cmds := make([]DrawCommand, 0, len(obstacles))
	for _, obs := range obstacles {
		path := polygonPath(obs)
		if path == nil {
			continue
		}
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: layer, Path: path,
			Fill: fill, Stroke: "black", StrokeWidth: 1,
		})
	}
	return cmds
}

// compileObstacles fills obstacles in the views where they are the primary
// content. Views whose structure has to sit under the obstacles draw them
// as part of the structure layer instead.
func compileObstacles(snap *document.Snapshot, view View) []DrawCommand {
	switch view {
	case ViewMap, ViewMapGraph, ViewObstacles:
		return obstacleCommands(LayerObstacles, snap.Obstacles, "darkgrey")
	case ViewGraph:
		if snap.Mode == document.ModeVisibility {
			return obstacleCommands(LayerObstacles, snap.Obstacles, "grey")
		}
	}
	return nil
}

func compileStructure(snap *document.Snapshot, view View) []DrawCommand {
	switch view {
	case ViewMapGraph:
		return compileMapGraph(snap.MapGraph)
	case ViewDecomposition:
		return compileFaces(snap)
	case ViewQuadtree:
		return compileCells(snap)
	}
	return nil
}

func compileMapGraph(g *document.Graph) []DrawCommand {
	if g == nil {
		return nil
	}
	var cmds []DrawCommand
	for _, e := range g.Edges {
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: LayerStructure, Path: segment(e.From, e.To),
			Stroke: "#666", StrokeWidth: 2,
		})
	}
	for _, n := range g.Nodes {
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: LayerStructure, Path: circle(n.Point, mapNodeRadius),
			Fill: "#666",
		})
	}
	return cmds
}

// compileFaces draws the decomposition faces numbered from 1 at their
// vertex centroid, then the obstacle outlines on top.
func compileFaces(snap *document.Snapshot) []DrawCommand {
	var cmds []DrawCommand
	for _, face := range snap.Faces {
		path := polygonPath(face)
		if path == nil {
			continue
		}
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: LayerStructure, Path: path,
			Fill: "lightgrey", Stroke: "#999", StrokeWidth: 1, Opacity: 0.6,
		})
	}
	for i, face := range snap.Faces {
		if len(face) == 0 {
			continue
		}
		c := geometry.Centroid(face)
		cmds = append(cmds, DrawCommand{
			Op: OpText, Layer: LayerStructure, Text: strconv.Itoa(i + 1),
			X: c.X, Y: c.Y, FontSize: 12, Fill: "#333", Align: "middle",
		})
	}
	return append(cmds, obstacleCommands(LayerStructure, snap.Obstacles, "")...)
}

func compileCells(snap *document.Snapshot) []DrawCommand {
	var cmds []DrawCommand
	for _, cell := range snap.Cells {
		path := polygonPath(cell.Polygon)
		if path == nil {
			continue
		}
		fill, stroke := "#e8f5e9", "#c8e6c9"
		if cell.Obstructed {
			fill, stroke = "#ffebee", "#ffcdd2"
		}
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: LayerStructure, Path: path,
			Fill: fill, Stroke: stroke, StrokeWidth: 1,
		})
	}
	return append(cmds, obstacleCommands(LayerStructure, snap.Obstacles, "darkgrey")...)
}

// compileGraph draws the planning graph in the graph view. Edges between
// centroid nodes stop at the node circles.
func compileGraph(snap *document.Snapshot, view View) []DrawCommand {
	if view != ViewGraph || snap.Graph == nil {
		return nil
	}

	if snap.Mode == document.ModeVisibility {
		var cmds []DrawCommand
		for _, e := range snap.Graph.Edges {
			cmds = append(cmds, DrawCommand{
				Op: OpPath, Layer: LayerGraph, Path: segment(e.From, e.To),
				Stroke: "lightgrey", StrokeWidth: 1,
			})
		}
		for _, n := range snap.Graph.Nodes {
			cmds = append(cmds, DrawCommand{
				Op: OpPath, Layer: LayerGraph, Path: circle(n.Point, visibilityNodeRadius),
				Fill: "red",
			})
		}
		return cmds
	}

	radius := NodeRadius(snap.Mode)
	edgeColor, nodeColor := "#64B5F6", "#1976D2"
	if snap.Mode == document.ModeLineSweep {
		edgeColor, nodeColor = "#90CAF9", "#2196F3"
	}

	var cmds []DrawCommand
	for _, e := range snap.Graph.Edges {
		a, b, ok := geometry.Shorten(e.From, e.To, radius)
		if !ok {
			continue
		}
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: LayerGraph, Path: segment(a, b),
			Stroke: edgeColor, StrokeWidth: 3, Opacity: 0.7,
		})
	}
	for _, n := range snap.Graph.Nodes {
		cmds = append(cmds, DrawCommand{
			Op: OpPath, Layer: LayerGraph, Path: circle(n.Point, radius),
			Fill: nodeColor, Stroke: "white", StrokeWidth: 2,
		})
		cmds = append(cmds, DrawCommand{
			Op: OpText, Layer: LayerGraph, Text: strconv.Itoa(n.ID + 1),
			X: n.Point.X, Y: n.Point.Y, FontSize: 14, Fill: "white", Align: "middle",
		})
	}
	return cmds
}

// compilePath overlays the path in the graph view. Paths given as node ids
// are clipped at the node radius; raw point paths are drawn as they are.
func compilePath(snap *document.Snapshot, view View) []DrawCommand {
	if view != ViewGraph || !snap.HasPath() {
		return nil
	}

	if len(snap.PathIDs) == 0 {
		return []DrawCommand{{
			Op: OpPath, Layer: LayerPath, Path: polylinePath(snap.Path),
			Stroke: "purple", StrokeWidth: 3,
		}}
	}

	path := clippedPath(snap.Path, NodeRadius(snap.Mode))
	if len(path) == 0 {
		return nil
	}
	if snap.Mode == document.ModeLineSweep {
		return []DrawCommand{
			{Op: OpPath, Layer: LayerPath, Path: path, Stroke: "#B71C1C", StrokeWidth: 6, Opacity: 0.3},
			{Op: OpPath, Layer: LayerPath, Path: path, Stroke: "#FF5252", StrokeWidth: 4},
		}
	}
	return []DrawCommand{{Op: OpPath, Layer: LayerPath, Path: path, Stroke: "purple", StrokeWidth: 3}}
}

// clippedPath builds one sub-path per segment, each shortened by radius at
// both ends. Zero-length segments are skipped.
func clippedPath(pts []document.Point, radius float64) []PathCommand {
	var cmds []PathCommand
	for i := 0; i+1 < len(pts); i++ {
		a, b, ok := geometry.Shorten(pts[i], pts[i+1], radius)
		if !ok {
			continue
		}
		cmds = append(cmds, moveTo(a), lineTo(b))
	}
	return cmds
}

func compileMarkers(markers []*Marker) []DrawCommand {
	cmds := make([]DrawCommand, 0, 2*len(markers))
	for _, m := range markers {
		style := markerStyle[m.Endpoint()]
		pos := m.Position()
		cmds = append(cmds,
			DrawCommand{
				Op: OpPath, Layer: LayerMarkers, ObjectID: m.ObjectID(),
				Path: circle(pos, MarkerRadius), Fill: style.fill, Stroke: "black", StrokeWidth: 2,
			},
			DrawCommand{
				Op: OpText, Layer: LayerMarkers, ObjectID: m.ObjectID(), Text: style.label,
				X: pos.X + MarkerRadius + 2, Y: pos.Y, FontSize: 14, Fill: "black", Align: "middle",
			},
		)
	}
	return cmds
}

type legendEntry struct {
	label string
	color string
}

var legends = map[document.Mode][]legendEntry{
	document.ModeLineSweep: {
		{"Obstacles", "darkgrey"},
		{"Map Graph", "#666"},
		{"Decomposition (Faces)", "lightgrey"},
		{"Cells Graph Nodes", "#2196F3"},
		{"Shortest Path", "#FF5252"},
	},
	document.ModeQuadtree: {
		{"Obstacles", "darkgrey"},
		{"Cells", "#e8f5e9"},
		{"Graph Nodes", "#1976D2"},
		{"Start", "green"},
		{"Goal", "blue"},
		{"Shortest Path", "purple"},
	},
	document.ModeVisibility: {
		{"Obstacles", "grey"},
		{"Graph Nodes", "red"},
		{"Start", "green"},
		{"Goal", "blue"},
		{"Shortest Path", "purple"},
	},
}

// Legend returns the legend pseudo-view of mode: a swatch and a label per
// entry, 25 units apart.
func Legend(mode document.Mode) []DrawCommand {
	entries := legends[mode]
	cmds := make([]DrawCommand, 0, 1+2*len(entries))
	cmds = append(cmds, DrawCommand{Op: OpClear})
	for i, e := range entries {
		y := 10 + float64(i)*25
		swatch := document.Polygon{{10, y}, {30, y}, {30, y + 20}, {10, y + 20}}
		cmds = append(cmds,
			DrawCommand{
				Op: OpPath, Layer: LayerLegend, Path: polygonPath(swatch),
				Fill: e.color, Stroke: "black", StrokeWidth: 1,
			},
			DrawCommand{
				Op: OpText, Layer: LayerLegend, Text: e.label,
				X: 40, Y: y + 15, FontSize: 14, Fill: "#333", Align: "start",
			},
		)
	}
	return cmds
}
