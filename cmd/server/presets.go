package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/presets"
)

// presetsHandler serves GET /api/presets/{mode}: the views and starting
// parameters the browser fills its form with.
func presetsHandler(set *presets.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		mode, err := document.ParseMode(mux.Vars(r)["mode"])
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		p, err := set.For(mode)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(p)
	}
}

// presetIndexHandler serves GET /api/presets: the default mode and every
// mode's preset.
func presetIndexHandler(set *presets.Set, defaultMode document.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := struct {
			DefaultMode document.Mode                    `json:"defaultMode"`
			Presets     map[document.Mode]presets.Preset `json:"presets"`
		}{
			DefaultMode: defaultMode,
			Presets:     make(map[document.Mode]presets.Preset, len(document.Modes)),
		}
		for _, mode := range document.Modes {
			if p, err := set.For(mode); err == nil {
				out.Presets[mode] = p
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(out)
	}
}
