package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/engine"
)

func TestDefaults(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	for _, mode := range document.Modes {
		p, err := set.For(mode)
		require.NoError(t, err, mode)
		assert.Equal(t, engine.DefaultViews(mode), p.Views, mode)
	}

	vis, _ := set.For(document.ModeVisibility)
	assert.Equal(t, int64(12345), vis.Params.Seed)
	assert.Equal(t, 3, vis.Params.NumObstacles)
	assert.Equal(t, document.Point{X: 595, Y: 595}, vis.Params.Goal)

	qt, _ := set.For(document.ModeQuadtree)
	assert.Equal(t, 5, qt.Params.MaxDepth)
	assert.Equal(t, 20.0, qt.Params.MinSize)
	assert.Equal(t, document.Point{X: 50, Y: 300}, qt.Params.Start)
}

func TestParseOverridesOnlyGivenFields(t *testing.T) {
	set, err := Parse([]byte(`
quadtree:
  views: [graph]
  params:
    max_depth: 7
`))
	require.NoError(t, err)

	qt, err := set.For(document.ModeQuadtree)
	require.NoError(t, err)
	assert.Equal(t, []engine.View{engine.ViewGraph}, qt.Views)
	assert.Equal(t, 7, qt.Params.MaxDepth)
	assert.Equal(t, 20.0, qt.Params.MinSize)
	assert.Equal(t, 100.0, qt.Params.ObstacleSize)

	ls, err := set.For(document.ModeLineSweep)
	require.NoError(t, err)
	assert.Len(t, ls.Views, 4)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"unknown mode":   "hexgrid:\n  views: [map]\n",
		"foreign view":   "visibility:\n  views: [quadtree]\n",
		"duplicate view": "quadtree:\n  views: [map, map]\n",
		"not yaml":       "quadtree: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("visibility:\n  params:\n    seed: 99\n"), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	vis, _ := set.For(document.ModeVisibility)
	assert.Equal(t, int64(99), vis.Params.Seed)
	assert.Equal(t, document.Point{X: 5, Y: 5}, vis.Params.Start)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	set, err = Load("")
	require.NoError(t, err)
	vis, _ = set.For(document.ModeVisibility)
	assert.Equal(t, int64(12345), vis.Params.Seed)
}

func TestForReturnsCopy(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	p, _ := set.For(document.ModeQuadtree)
	p.Views[0] = engine.ViewGraph

	again, _ := set.For(document.ModeQuadtree)
	assert.Equal(t, engine.ViewMap, again.Views[0])
}
