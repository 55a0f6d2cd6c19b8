package engine

import (
	"encoding/json"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

// CycleKind says which layers the last compile touched.
type CycleKind string

const (
	CycleFull    CycleKind = "full"    // every layer
	CyclePartial CycleKind = "partial" // graph, path and markers
	CycleMarkers CycleKind = "markers" // markers only, during a drag
)

// ViewFrame is the complete command list of one view.
type ViewFrame struct {
	View     View          `json:"view"`
	Commands []DrawCommand `json:"commands"`
}

// Frame is what a surface repaints after a cycle.
type Frame struct {
	Mode       document.Mode `json:"mode"`
	Kind       CycleKind     `json:"kind"`
	SnapshotID string        `json:"snapshotId,omitempty"`
	Seq        uint64        `json:"seq"`
	Views      []ViewFrame   `json:"views"`
	Legend     []DrawCommand `json:"legend"`
}

// View returns the commands of v, or nil if the frame has no such view.
func (f Frame) View(v View) []DrawCommand {
	for _, vf := range f.Views {
		if vf.View == v {
			return vf.Commands
		}
	}
	return nil
}

// Engine is the multi-view renderer. It turns the current snapshot and the
// marker states into per-view draw commands and keeps the base layers of
// every view cached between full cycles.
//
// Engine is not safe for concurrent use; markers may be moved concurrently.
type Engine struct {
	mode  document.Mode
	views []View

	snap    *document.Snapshot
	markers map[View][]*Marker // in paint order: start, goal
	scene   map[View]*sceneView
	grid    []DrawCommand
	legend  []DrawCommand

	// Base layers have been compiled at least once.
	hasBase bool
	kind    CycleKind
}

// NewEngine creates a renderer for mode drawing views, or the mode's full
// view set when views is empty.
func NewEngine(mode document.Mode, views []View) *Engine {
	if len(views) == 0 {
		views = DefaultViews(mode)
	}

	e := &Engine{
		mode:    mode,
		views:   views,
		markers: make(map[View][]*Marker, len(views)),
		scene:   make(map[View]*sceneView, len(views)),
		grid:    compileGrid(),
		legend:  Legend(mode),
		kind:    CycleFull,
	}
	for _, v := range views {
		for _, ep := range document.Endpoints {
			e.markers[v] = append(e.markers[v], newMarker(v, ep))
		}
		e.scene[v] = &sceneView{}
	}
	return e
}

func (e *Engine) Mode() document.Mode          { return e.mode }
func (e *Engine) Views() []View                { return e.views }
func (e *Engine) Snapshot() *document.Snapshot { return e.snap }

// Marker returns the marker of ep in view, or nil for an unknown view.
func (e *Engine) Marker(view View, ep document.Endpoint) *Marker {
	for _, m := range e.markers[view] {
		if m.Endpoint() == ep {
			return m
		}
	}
	return nil
}

// Markers returns every marker, view by view.
func (e *Engine) Markers() []*Marker {
	var out []*Marker
	for _, v := range e.views {
		out = append(out, e.markers[v]...)
	}
	return out
}

// Full recompiles every layer of every view from snap.
func (e *Engine) Full(snap *document.Snapshot) {
	if snap == nil {
		return
	}
	e.snap = snap
	e.syncMarkers()

	for _, v := range e.views {
		sv := e.scene[v]
		sv.base = e.compileBase(v)
		sv.overlay = e.compileOverlay(v)
		sv.markers = compileMarkers(e.markers[v])
	}
	e.hasBase = true
	e.kind = CycleFull
}

// Partial recompiles the graph, path and marker layers from snap and keeps
// the cached base layers. Without cached base layers it falls back to Full.
func (e *Engine) Partial(snap *document.Snapshot) {
	if snap == nil {
		return
	}
	if !e.hasBase {
		e.Full(snap)
		return
	}
	e.snap = snap
	e.syncMarkers()

	for _, v := range e.views {
		sv := e.scene[v]
		sv.overlay = e.compileOverlay(v)
		sv.markers = compileMarkers(e.markers[v])
	}
	e.kind = CyclePartial
}

// RefreshMarkers recompiles only the marker layers.
func (e *Engine) RefreshMarkers() {
	for _, v := range e.views {
		e.scene[v].markers = compileMarkers(e.markers[v])
	}
	e.kind = CycleMarkers
}

func (e *Engine) syncMarkers() {
	for _, v := range e.views {
		for _, m := range e.markers[v] {
			m.sync(e.snap.Endpoint(m.Endpoint()))
		}
	}
}

func (e *Engine) compileBase(v View) []DrawCommand {
	cmds := make([]DrawCommand, 0, len(e.grid))
	cmds = append(cmds, e.grid...)
	cmds = append(cmds, compileObstacles(e.snap, v)...)
	return append(cmds, compileStructure(e.snap, v)...)
}

func (e *Engine) compileOverlay(v View) []DrawCommand {
	return append(compileGraph(e.snap, v), compilePath(e.snap, v)...)
}

// View returns the current commands of v: clear, base, overlay, markers.
func (e *Engine) View(v View) []DrawCommand {
	sv, ok := e.scene[v]
	if !ok {
		return nil
	}
	return sv.commands()
}

// Frame assembles every view.
func (e *Engine) Frame() Frame {
	f := Frame{
		Mode:   e.mode,
		Kind:   e.kind,
		Views:  make([]ViewFrame, 0, len(e.views)),
		Legend: e.legend,
	}
	if e.snap != nil {
		f.SnapshotID = e.snap.ID
		f.Seq = e.snap.Seq
	}
	for _, v := range e.views {
		f.Views = append(f.Views, ViewFrame{View: v, Commands: e.View(v)})
	}
	return f
}

// Render returns the current frame as JSON.
func (e *Engine) Render() string {
	data, err := json.Marshal(e.Frame())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// HitTest returns the topmost marker in view containing the logical point
// (x, y). Markers paint start before goal, so goal wins an overlap.
func (e *Engine) HitTest(view View, x, y float64) (document.Endpoint, bool) {
	markers := e.markers[view]
	p := document.Point{X: x, Y: y}
	for i := len(markers) - 1; i >= 0; i-- {
		if markers[i].hit(p) {
			return markers[i].Endpoint(), true
		}
	}
	return "", false
}
