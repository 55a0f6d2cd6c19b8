package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/planviz/planviz/viewer-go/internal/asset"
	"github.com/planviz/planviz/viewer-go/internal/bookmark"
	"github.com/planviz/planviz/viewer-go/internal/config"
	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/export"
	"github.com/planviz/planviz/viewer-go/internal/live"
	mw "github.com/planviz/planviz/viewer-go/internal/middleware"
	"github.com/planviz/planviz/viewer-go/internal/planapi"
	"github.com/planviz/planviz/viewer-go/internal/presets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	presetSet, err := presets.Load(cfg.PresetsFile)
	if err != nil {
		slog.Error("load presets", "error", err, "file", cfg.PresetsFile)
		os.Exit(1)
	}

	defaultMode, err := document.ParseMode(cfg.DefaultMode)
	if err != nil {
		slog.Error("invalid DEFAULT_MODE", "error", err)
		os.Exit(1)
	}

	planner, err := planapi.New(cfg.PlannerURL, planapi.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		slog.Error("create planner client", "error", err)
		os.Exit(1)
	}

	hub := live.NewHub()
	go hub.Run()

	liveHandler := live.NewHandler(hub, planner, presetSet, cfg.OriginPatterns())
	exportHandler := export.NewHandler(planner, presetSet)
	assetHandler := asset.NewHandler(cfg.StaticDir)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, hub.Len())
	}).Methods("GET")

	r.HandleFunc("/api/presets", presetIndexHandler(presetSet, defaultMode)).Methods("GET")
	r.HandleFunc("/api/presets/{mode}", presetsHandler(presetSet)).Methods("GET")
	r.HandleFunc("/export/{mode}/{view:[a-z_]+}.svg", exportHandler.ExportView).Methods("GET")

	// Bookmarks need a database
	if cfg.DatabaseURL != "" {
		pool, err := bookmark.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := bookmark.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		bookmarkHandler := bookmark.NewHandler(bookmark.NewService(store))
		r.HandleFunc("/api/bookmarks", bookmarkHandler.Create).Methods("POST", "OPTIONS")
		r.HandleFunc("/api/bookmarks/{bookmarkId}", bookmarkHandler.Get).Methods("GET")
	} else {
		slog.Info("DATABASE_URL not set, bookmarks disabled")
	}

	// WebSocket endpoint
	r.HandleFunc("/ws/{mode}", liveHandler.ServeWS)

	// Static bundle last so it never shadows the API
	r.PathPrefix("/").Handler(assetHandler.Serve()).Methods("GET")

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Close live sessions first so their pumps return
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "planner", cfg.PlannerURL, "defaultMode", defaultMode)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
