// Package export renders a single view of a freshly planned snapshot as SVG.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/engine"
	"github.com/planviz/planviz/viewer-go/internal/planapi"
	"github.com/planviz/planviz/viewer-go/internal/presets"
)

// Width and height of the legend document.
const (
	legendWidth     = 260
	legendRowHeight = 25
)

// Fetcher issues one planning request.
type Fetcher interface {
	Fetch(ctx context.Context, mode document.Mode, params document.ViewParameters) (*document.Snapshot, error)
}

type Handler struct {
	fetcher Fetcher
	presets *presets.Set
}

func NewHandler(fetcher Fetcher, set *presets.Set) *Handler {
	return &Handler{fetcher: fetcher, presets: set}
}

// ExportView serves GET /export/{mode}/{view}.svg. Query parameters override
// the mode's preset parameters the same way the planner query does.
func (h *Handler) ExportView(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mode, err := document.ParseMode(vars["mode"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	view := engine.View(vars["view"])

	if view == engine.ViewLegend {
		legend := engine.Legend(mode)
		height := float64(10 + legendRowHeight*(len(legend)/2))
		h.writeSVG(w, legendWidth, height, legend)
		return
	}
	if !slices.Contains(engine.DefaultViews(mode), view) {
		writeError(w, http.StatusNotFound, "view "+string(view)+" is not available in mode "+string(mode))
		return
	}

	preset, err := h.presets.For(mode)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	params, err := planapi.ParseQuery(r.URL.Query(), preset.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.fetcher.Fetch(r.Context(), mode, params)
	if err != nil {
		slog.Error("export fetch failed", "error", err, "mode", mode, "view", view)
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, "planning request failed")
		return
	}

	eng := engine.NewEngine(mode, []engine.View{view})
	eng.Full(snap)
	h.writeSVG(w, document.CanvasWidth, document.CanvasHeight, eng.View(view))
}

func (h *Handler) writeSVG(w http.ResponseWriter, width, height float64, cmds []engine.DrawCommand) {
	var buf bytes.Buffer
	if err := EncodeSVG(&buf, width, height, cmds); err != nil {
		slog.Error("encode svg", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
