package live

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/planviz/planviz/viewer-go/internal/coordinator"
	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/planapi"
	"github.com/planviz/planviz/viewer-go/internal/presets"
	"github.com/planviz/planviz/viewer-go/internal/typeid"
)

type Handler struct {
	hub            *Hub
	fetcher        coordinator.Fetcher
	presets        *presets.Set
	originPatterns []string
}

func NewHandler(hub *Hub, fetcher coordinator.Fetcher, set *presets.Set, originPatterns []string) *Handler {
	return &Handler{hub: hub, fetcher: fetcher, presets: set, originPatterns: originPatterns}
}

// ServeWS upgrades GET /ws/{mode}. Query parameters override the mode's
// preset the same way the planner query does, so a shared link reopens the
// same scenario.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	cfg, status, err := h.sessionConfig(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := NewSession(ctx, h.hub, conn, cfg)
	h.hub.Register(s)
	s.Start()

	go s.WritePump(ctx)
	s.ReadPump(ctx)

	cancel()
	s.coord.Wait()
}

func (h *Handler) sessionConfig(r *http.Request) (SessionConfig, int, error) {
	mode, err := document.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		return SessionConfig{}, http.StatusNotFound, err
	}
	preset, err := h.presets.For(mode)
	if err != nil {
		return SessionConfig{}, http.StatusNotFound, err
	}
	params, err := planapi.ParseQuery(r.URL.Query(), preset.Params)
	if err != nil {
		return SessionConfig{}, http.StatusBadRequest, err
	}
	return SessionConfig{
		ID:       typeid.NewSessionID(),
		ClientID: uuid.New().String(),
		Mode:     mode,
		Views:    preset.Views,
		Params:   params,
		Fetcher:  h.fetcher,
	}, http.StatusOK, nil
}
