package engine

import (
	"encoding/json"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

// Op names a drawing operation.
type Op string

const (
	OpClear Op = "clear" // wipe the whole surface
	OpPath  Op = "path"  // stroke and/or fill Path
	OpText  Op = "text"  // draw Text at (X, Y)
)

// Layer tags a command with the layer that produced it.
type Layer string

const (
	LayerGrid      Layer = "grid"
	LayerObstacles Layer = "obstacles"
	LayerStructure Layer = "structure"
	LayerGraph     Layer = "graph"
	LayerPath      Layer = "path"
	LayerMarkers   Layer = "markers"
	LayerLegend    Layer = "legend"
)

// Base reports whether the layer only depends on the obstacle field and the
// planning structure. Base layers are compiled on full cycles only.
func (l Layer) Base() bool {
	switch l {
	case LayerGrid, LayerObstacles, LayerStructure:
		return true
	}
	return false
}

// DrawCommand represents a single drawing operation for a surface to execute.
// A view's command list is in painter's order (back to front) and always
// starts with a clear.
type DrawCommand struct {
	Op          Op            `json:"op"`
	Layer       Layer         `json:"layer,omitempty"`
	ObjectID    string        `json:"objectId,omitempty"` // for hit correlation
	Path        []PathCommand `json:"path,omitempty"`
	Fill        string        `json:"fill,omitempty"`
	Stroke      string        `json:"stroke,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"`
	Text        string        `json:"text,omitempty"`
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
	FontSize    float64       `json:"fontSize,omitempty"`
	Align       string        `json:"align,omitempty"` // "start", "middle"
}

// PathCommand represents a single path segment for rendering.
// Format: ["M", x, y], ["L", x, y], ["Z"], and ["A", cx, cy, r] for a full
// circle.
type PathCommand []interface{}

func moveTo(p document.Point) PathCommand { return PathCommand{"M", p.X, p.Y} }
func lineTo(p document.Point) PathCommand { return PathCommand{"L", p.X, p.Y} }
func closePath() PathCommand              { return PathCommand{"Z"} }

func circle(c document.Point, r float64) []PathCommand {
	return []PathCommand{{"A", c.X, c.Y, r}}
}

func segment(a, b document.Point) []PathCommand {
	return []PathCommand{moveTo(a), lineTo(b)}
}

// polygonPath outlines a closed ring. A duplicated closing vertex is
// dropped; Z closes the ring anyway.
func polygonPath(poly document.Polygon) []PathCommand {
	n := len(poly)
	if n == 0 {
		return nil
	}
	if n > 1 && poly[0] == poly[n-1] {
		n--
	}
	cmds := make([]PathCommand, 0, n+1)
	cmds = append(cmds, PathCommand{"M", poly[0][0], poly[0][1]})
	for _, v := range poly[1:n] {
		cmds = append(cmds, PathCommand{"L", v[0], v[1]})
	}
	return append(cmds, closePath())
}

func polylinePath(pts []document.Point) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	cmds := make([]PathCommand, 0, len(pts))
	cmds = append(cmds, moveTo(pts[0]))
	for _, p := range pts[1:] {
		cmds = append(cmds, lineTo(p))
	}
	return cmds
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
