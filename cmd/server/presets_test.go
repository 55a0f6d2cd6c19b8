package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/presets"
)

func presetRouter(t *testing.T) *mux.Router {
	t.Helper()
	set, err := presets.Default()
	require.NoError(t, err)
	r := mux.NewRouter()
	r.HandleFunc("/api/presets", presetIndexHandler(set, document.ModeQuadtree))
	r.HandleFunc("/api/presets/{mode}", presetsHandler(set))
	return r
}

func TestPresetsHandler(t *testing.T) {
	r := presetRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/presets/visibility", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var p presets.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, int64(12345), p.Params.Seed)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/presets/hexgrid", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresetIndexHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	presetRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		DefaultMode document.Mode                    `json:"defaultMode"`
		Presets     map[document.Mode]presets.Preset `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, document.ModeQuadtree, out.DefaultMode)
	assert.Len(t, out.Presets, 3)
}
