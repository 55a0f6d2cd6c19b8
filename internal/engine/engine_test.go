package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

var layerRank = map[Layer]int{
	LayerGrid:      0,
	LayerObstacles: 1,
	LayerStructure: 2,
	LayerGraph:     3,
	LayerPath:      4,
	LayerMarkers:   5,
}

func layerCommands(cmds []DrawCommand, layers ...Layer) []DrawCommand {
	var out []DrawCommand
	for _, c := range cmds {
		for _, l := range layers {
			if c.Layer == l {
				out = append(out, c)
			}
		}
	}
	return out
}

func texts(cmds []DrawCommand) []string {
	var out []string
	for _, c := range cmds {
		if c.Op == OpText {
			out = append(out, c.Text)
		}
	}
	return out
}

func pointAt(t *testing.T, pc PathCommand) document.Point {
	t.Helper()
	require.GreaterOrEqual(t, len(pc), 3)
	return document.Point{X: pc[1].(float64), Y: pc[2].(float64)}
}

func TestDefaultViews(t *testing.T) {
	assert.Equal(t, []View{ViewMap, ViewMapGraph, ViewDecomposition, ViewGraph}, DefaultViews(document.ModeLineSweep))
	assert.Equal(t, []View{ViewMap, ViewQuadtree, ViewGraph}, DefaultViews(document.ModeQuadtree))
	assert.Equal(t, []View{ViewObstacles, ViewGraph}, DefaultViews(document.ModeVisibility))
}

func TestValidateViews(t *testing.T) {
	assert.NoError(t, ValidateViews(document.ModeQuadtree, []View{ViewGraph, ViewMap}))
	assert.Error(t, ValidateViews(document.ModeQuadtree, []View{ViewDecomposition}))
	assert.Error(t, ValidateViews(document.ModeQuadtree, []View{ViewMap, ViewMap}))
	assert.Error(t, ValidateViews(document.Mode("hex"), nil))
}

func TestFullFrameLayerOrder(t *testing.T) {
	for _, mode := range document.Modes {
		t.Run(string(mode), func(t *testing.T) {
			e := NewEngine(mode, nil)
			e.Full(document.NewSampleSnapshot(mode))

			frame := e.Frame()
			assert.Equal(t, CycleFull, frame.Kind)
			require.Len(t, frame.Views, len(DefaultViews(mode)))

			for _, vf := range frame.Views {
				require.NotEmpty(t, vf.Commands, vf.View)
				assert.Equal(t, OpClear, vf.Commands[0].Op, vf.View)

				rank := -1
				for _, c := range vf.Commands[1:] {
					r, ok := layerRank[c.Layer]
					require.True(t, ok, "unexpected layer %q", c.Layer)
					assert.GreaterOrEqual(t, r, rank, "view %s paints %s out of order", vf.View, c.Layer)
					rank = r
				}
				assert.Equal(t, LayerMarkers, vf.Commands[len(vf.Commands)-1].Layer, vf.View)
			}
		})
	}
}

func TestGridLayer(t *testing.T) {
	grid := compileGrid()

	lines := 0
	for _, c := range grid {
		if c.Op == OpPath {
			lines++
		}
	}
	// 0..600 every 50 in both directions.
	assert.Equal(t, 26, lines)
	assert.Contains(t, texts(grid), "0")
	assert.Contains(t, texts(grid), "300")
	assert.Contains(t, texts(grid), "600")
}

func TestPartialKeepsBaseLayers(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, nil)
	first := document.NewSampleSnapshot(document.ModeQuadtree)
	e.Full(first)
	before := e.Frame()

	second := document.NewSampleSnapshot(document.ModeQuadtree)
	second.Obstacles = []document.Polygon{{{0, 0}, {10, 0}, {10, 10}}}
	second.Cells = nil
	second.Start = document.Point{X: 10, Y: 10}
	second.Path = []document.Point{{X: 75, Y: 75}, {X: 225, Y: 75}}
	second.PathIDs = []int{0, 1}
	e.Partial(second)
	after := e.Frame()

	assert.Equal(t, CyclePartial, after.Kind)
	for _, v := range e.Views() {
		assert.Equal(t,
			layerCommands(before.View(v), LayerGrid, LayerObstacles, LayerStructure),
			layerCommands(after.View(v), LayerGrid, LayerObstacles, LayerStructure),
			"base layers of %s changed", v)
	}

	assert.NotEqual(t,
		layerCommands(before.View(ViewGraph), LayerPath),
		layerCommands(after.View(ViewGraph), LayerPath))
	assert.Equal(t, document.Point{X: 10, Y: 10}, e.Marker(ViewMap, document.Start).Position())
}

func TestPartialWithoutBaseFallsBackToFull(t *testing.T) {
	e := NewEngine(document.ModeVisibility, nil)
	e.Partial(document.NewSampleSnapshot(document.ModeVisibility))

	frame := e.Frame()
	assert.Equal(t, CycleFull, frame.Kind)
	assert.NotEmpty(t, layerCommands(frame.View(ViewObstacles), LayerObstacles))
}

func TestNilSnapshotIsIgnored(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, nil)
	e.Full(nil)
	e.Partial(nil)

	assert.Nil(t, e.Snapshot())
	frame := e.Frame()
	for _, vf := range frame.Views {
		assert.Equal(t, []DrawCommand{{Op: OpClear}}, vf.Commands)
	}
}

func TestHeldMarkerSurvivesCycle(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, nil)
	m := e.Marker(ViewGraph, document.Goal)
	m.SetHeld(true)
	m.MoveTo(document.Point{X: 400, Y: 400})

	e.Full(document.NewSampleSnapshot(document.ModeQuadtree))

	assert.Equal(t, document.Point{X: 400, Y: 400}, m.Position())
	assert.Equal(t, document.Point{X: 550, Y: 300}, e.Marker(ViewMap, document.Goal).Position())
}

func TestRefreshMarkersOnly(t *testing.T) {
	e := NewEngine(document.ModeLineSweep, nil)
	e.Full(document.NewSampleSnapshot(document.ModeLineSweep))
	before := e.Frame()

	e.Marker(ViewDecomposition, document.Start).MoveTo(document.Point{X: 20, Y: 30})
	e.RefreshMarkers()
	after := e.Frame()

	assert.Equal(t, CycleMarkers, after.Kind)
	assert.Equal(t,
		layerCommands(before.View(ViewDecomposition), LayerGrid, LayerObstacles, LayerStructure, LayerGraph, LayerPath),
		layerCommands(after.View(ViewDecomposition), LayerGrid, LayerObstacles, LayerStructure, LayerGraph, LayerPath))

	markers := layerCommands(after.View(ViewDecomposition), LayerMarkers)
	require.NotEmpty(t, markers)
	assert.Equal(t, "decomposition:start", markers[0].ObjectID)
	assert.Equal(t, PathCommand{"A", 20.0, 30.0, float64(MarkerRadius)}, markers[0].Path[0])
}

func TestHitTest(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, nil)
	e.Full(document.NewSampleSnapshot(document.ModeQuadtree))

	ep, ok := e.HitTest(ViewMap, 53, 302)
	require.True(t, ok)
	assert.Equal(t, document.Start, ep)

	_, ok = e.HitTest(ViewMap, 300, 50)
	assert.False(t, ok)

	_, ok = e.HitTest(ViewDecomposition, 53, 302)
	assert.False(t, ok)
}

func TestHitTestGoalWinsOverlap(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, nil)
	e.Marker(ViewMap, document.Start).MoveTo(document.Point{X: 100, Y: 100})
	e.Marker(ViewMap, document.Goal).MoveTo(document.Point{X: 104, Y: 100})

	ep, ok := e.HitTest(ViewMap, 102, 100)
	require.True(t, ok)
	assert.Equal(t, document.Goal, ep)
}

func TestIDPathIsClippedAtNodeRadius(t *testing.T) {
	snap := document.NewSampleSnapshot(document.ModeLineSweep)
	e := NewEngine(document.ModeLineSweep, nil)
	e.Full(snap)

	path := layerCommands(e.View(ViewGraph), LayerPath)
	require.NotEmpty(t, path)
	cmds := path[len(path)-1].Path
	require.Len(t, cmds, 2*(len(snap.Path)-1))

	first := pointAt(t, cmds[0])
	assert.InDelta(t, lineSweepNodeRadius, first.Distance(snap.Path[0]), 1e-9)
	last := pointAt(t, cmds[len(cmds)-1])
	assert.InDelta(t, lineSweepNodeRadius, last.Distance(snap.Path[len(snap.Path)-1]), 1e-9)
}

func TestClippedPathSkipsZeroLengthSegments(t *testing.T) {
	p := document.Point{X: 100, Y: 100}
	q := document.Point{X: 200, Y: 100}

	cmds := clippedPath([]document.Point{p, p, q}, 12)
	require.Len(t, cmds, 2)
	assert.Equal(t, PathCommand{"M", 112.0, 100.0}, cmds[0])
	assert.Equal(t, PathCommand{"L", 188.0, 100.0}, cmds[1])
}

func TestRawPathIsNotClipped(t *testing.T) {
	snap := document.NewSampleSnapshot(document.ModeVisibility)
	e := NewEngine(document.ModeVisibility, nil)
	e.Full(snap)

	path := layerCommands(e.View(ViewGraph), LayerPath)
	require.Len(t, path, 1)
	assert.Equal(t, polylinePath(snap.Path), path[0].Path)
}

func TestMissingPathDrawsNoOverlay(t *testing.T) {
	snap := document.NewSampleSnapshot(document.ModeVisibility)
	snap.Path = nil

	e := NewEngine(document.ModeVisibility, nil)
	e.Full(snap)

	assert.Empty(t, layerCommands(e.View(ViewGraph), LayerPath))
	assert.NotEmpty(t, layerCommands(e.View(ViewGraph), LayerGraph))
}

func TestDecompositionFaceLabels(t *testing.T) {
	e := NewEngine(document.ModeLineSweep, nil)
	e.Full(document.NewSampleSnapshot(document.ModeLineSweep))

	structure := layerCommands(e.View(ViewDecomposition), LayerStructure)
	assert.Equal(t, []string{"1", "2", "3", "4"}, texts(structure))
	for _, c := range structure {
		if c.Text == "1" {
			assert.Equal(t, 125.0, c.X)
			assert.Equal(t, 300.0, c.Y)
		}
	}
}

func TestGraphNodeLabels(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, nil)
	snap := document.NewSampleSnapshot(document.ModeQuadtree)
	e.Full(snap)

	labels := texts(layerCommands(e.View(ViewGraph), LayerGraph))
	require.Len(t, labels, len(snap.Graph.Nodes))
	assert.Contains(t, labels, "1")
	assert.NotContains(t, labels, "0")
}

func TestQuadtreeCellColors(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, nil)
	snap := document.NewSampleSnapshot(document.ModeQuadtree)
	e.Full(snap)

	var free, blocked int
	for _, c := range layerCommands(e.View(ViewQuadtree), LayerStructure) {
		switch c.Fill {
		case "#e8f5e9":
			free++
		case "#ffebee":
			blocked++
		}
	}
	assert.Equal(t, 12, free)
	assert.Equal(t, 4, blocked)
}

func TestLegend(t *testing.T) {
	legend := Legend(document.ModeVisibility)
	require.NotEmpty(t, legend)
	assert.Equal(t, OpClear, legend[0].Op)
	assert.Equal(t, []string{"Obstacles", "Graph Nodes", "Start", "Goal", "Shortest Path"}, texts(legend))
}

func TestViewportRoundTrip(t *testing.T) {
	vp := Viewport(1200, 800)

	x, y := vp.TransformPoint(600, 600)
	assert.InDelta(t, 1000.0, x, 1e-9)
	assert.InDelta(t, 800.0, y, 1e-9)

	p := vp.Invert().Apply(document.Point{X: 1000, Y: 800})
	assert.InDelta(t, 600.0, p.X, 1e-9)
	assert.InDelta(t, 600.0, p.Y, 1e-9)

	assert.True(t, Viewport(600, 600).IsIdentity())
	assert.Equal(t, Identity(), Stretch(0, 10))
}

func TestRenderJSON(t *testing.T) {
	e := NewEngine(document.ModeQuadtree, []View{ViewGraph})
	e.Full(document.NewSampleSnapshot(document.ModeQuadtree))

	var frame struct {
		Mode  string `json:"mode"`
		Kind  string `json:"kind"`
		Views []struct {
			View     string            `json:"view"`
			Commands []json.RawMessage `json:"commands"`
		} `json:"views"`
	}
	require.NoError(t, json.Unmarshal([]byte(e.Render()), &frame))
	assert.Equal(t, "quadtree", frame.Mode)
	assert.Equal(t, "full", frame.Kind)
	require.Len(t, frame.Views, 1)
	assert.Equal(t, "graph", frame.Views[0].View)
	assert.JSONEq(t, `{"op":"clear"}`, string(frame.Views[0].Commands[0]))
}
