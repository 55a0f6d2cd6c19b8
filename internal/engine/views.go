package engine

import (
	"fmt"
	"slices"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

// View names one drawing surface. All views of a mode share the logical
// canvas and reflect the same snapshot.
type View string

const (
	ViewMap           View = "map"
	ViewMapGraph      View = "map_graph"
	ViewDecomposition View = "decomposition"
	ViewQuadtree      View = "quadtree"
	ViewObstacles     View = "obstacles"
	ViewGraph         View = "graph"
)

// ViewLegend is the legend pseudo-view. It has no markers and never changes
// for a given mode.
const ViewLegend View = "legend"

var modeViews = map[document.Mode][]View{
	document.ModeLineSweep:  {ViewMap, ViewMapGraph, ViewDecomposition, ViewGraph},
	document.ModeQuadtree:   {ViewMap, ViewQuadtree, ViewGraph},
	document.ModeVisibility: {ViewObstacles, ViewGraph},
}

// DefaultViews returns the full view set of a mode.
func DefaultViews(mode document.Mode) []View {
	return slices.Clone(modeViews[mode])
}

// ValidateViews checks that every view belongs to mode and none repeats.
func ValidateViews(mode document.Mode, views []View) error {
	known := modeViews[mode]
	if known == nil {
		return fmt.Errorf("unknown mode %q", mode)
	}
	seen := make(map[View]bool, len(views))
	for _, v := range views {
		if !slices.Contains(known, v) {
			return fmt.Errorf("view %q is not available in mode %s", v, mode)
		}
		if seen[v] {
			return fmt.Errorf("view %q listed twice", v)
		}
		seen[v] = true
	}
	return nil
}

// sceneView is the retained command cache of one view.
type sceneView struct {
	base    []DrawCommand // grid, obstacles, structure
	overlay []DrawCommand // graph, path
	markers []DrawCommand
}

// commands assembles the view's full frame: clear, then every layer.
func (sv *sceneView) commands() []DrawCommand {
	out := make([]DrawCommand, 0, 1+len(sv.base)+len(sv.overlay)+len(sv.markers))
	out = append(out, DrawCommand{Op: OpClear})
	out = append(out, sv.base...)
	out = append(out, sv.overlay...)
	return append(out, sv.markers...)
}
