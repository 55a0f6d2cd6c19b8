package asset

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
)

// Handler serves the static viewer bundle: the index page, the wasm build
// and its glue script.
type Handler struct {
	dir string
}

// NewHandler creates a handler serving files from dir.
func NewHandler(dir string) *Handler {
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("static dir not available", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Serve returns an http.Handler for the bundle. The index page and the wasm
// binary change with every build and are never cached.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		switch {
		case r.URL.Path == "/" || name == "index.html":
			w.Header().Set("Cache-Control", "no-cache")
		case strings.HasSuffix(name, ".wasm"):
			w.Header().Set("Content-Type", "application/wasm")
			w.Header().Set("Cache-Control", "no-cache")
		default:
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		fs.ServeHTTP(w, r)
	})
}
