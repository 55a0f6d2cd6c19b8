// Command tui is a terminal viewer: it draws one view of a mode into the
// terminal and lets the mouse drag the start and goal markers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/planviz/planviz/viewer-go/internal/config"
	"github.com/planviz/planviz/viewer-go/internal/coordinator"
	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/engine"
	"github.com/planviz/planviz/viewer-go/internal/planapi"
	"github.com/planviz/planviz/viewer-go/internal/presets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	modeFlag := flag.String("mode", cfg.DefaultMode, "planning mode: line_sweep, quadtree or visibility")
	viewFlag := flag.String("view", string(engine.ViewGraph), "view to draw")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	// The terminal belongs to the viewer; logs go to a file or nowhere.
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(f, opts)))
	} else {
		slog.SetDefault(slog.New(slog.DiscardHandler))
	}

	mode, err := document.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	set, err := presets.Load(cfg.PresetsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load presets:", err)
		os.Exit(1)
	}
	preset, err := set.For(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	view := engine.View(*viewFlag)
	if !slices.Contains(preset.Views, view) {
		fmt.Fprintf(os.Stderr, "view %q is not available in mode %s (have %v)\n", view, mode, preset.Views)
		os.Exit(1)
	}

	client, err := planapi.New(cfg.PlannerURL, planapi.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		fmt.Fprintln(os.Stderr, "create planner client:", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "create screen:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "init screen:", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)

	v := newViewer(screen, mode, view)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := coordinator.New(mode, client, preset.Params,
		coordinator.WithViews([]engine.View{view}),
		coordinator.WithContext(ctx),
		coordinator.WithNotifier(coordinator.NotifierFunc(v.notify)),
	)
	v.coord = coord
	coord.OnRedraw(v.frame)
	coord.Go(func(ctx context.Context) { _ = coord.Full(ctx) })

	v.run()
	cancel()
	coord.Wait()
}

type viewer struct {
	screen tcell.Screen
	mode   document.Mode
	view   engine.View
	coord  *coordinator.Coordinator

	mu       sync.Mutex
	last     engine.Frame
	status   string
	dragging bool
}

func newViewer(screen tcell.Screen, mode document.Mode, view engine.View) *viewer {
	return &viewer{screen: screen, mode: mode, view: view, status: "loading..."}
}

// frame runs on coordinator goroutines; painting happens on the event loop.
func (v *viewer) frame(f engine.Frame) {
	v.mu.Lock()
	v.last = f
	if f.Kind != engine.CycleMarkers {
		v.status = fmt.Sprintf("seq %d", f.Seq)
	}
	v.mu.Unlock()
	v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (v *viewer) notify(err error) {
	slog.Warn("planning cycle failed", "error", err)
	v.mu.Lock()
	v.status = "error: " + err.Error()
	v.mu.Unlock()
	v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (v *viewer) run() {
	for {
		switch ev := v.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			v.screen.Sync()
			v.paint()
		case *tcell.EventInterrupt:
			v.paint()
		case *tcell.EventKey:
			if v.key(ev) {
				return
			}
		case *tcell.EventMouse:
			v.mouse(ev)
		}
	}
}

// key handles a key press and reports whether to quit.
func (v *viewer) key(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
		return true
	case ev.Rune() == 'r':
		v.setStatus("reloading...")
		v.coord.Go(func(ctx context.Context) { _ = v.coord.Full(ctx) })
	case ev.Rune() == 'n':
		v.setStatus("regenerating...")
		v.coord.Go(func(ctx context.Context) { _ = v.coord.Regenerate(ctx) })
	}
	return false
}

func (v *viewer) mouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	r := v.raster()
	p := r.Logical(x, y)

	pressed := ev.Buttons()&tcell.Button1 != 0
	switch {
	case pressed && !v.dragging:
		// A marker is smaller than a cell; grab it by its center when the
		// press lands on the marker's cell.
		for _, ep := range document.Endpoints {
			ctrl := v.coord.Controller(v.view, ep)
			pos := ctrl.Marker().Position()
			if mx, my := r.CellOf(pos); mx == x && my == y {
				p = pos
				break
			}
		}
		_, ok, err := v.coord.PointerDown(v.view, p)
		if err != nil {
			v.setStatus(err.Error())
			return
		}
		v.dragging = ok
	case pressed && v.dragging:
		if _, err := v.coord.PointerMove(v.view, p); err != nil {
			slog.Debug("pointer move", "error", err)
		}
	case !pressed && v.dragging:
		v.dragging = false
		out, err := v.coord.PointerUp(v.view)
		if err != nil {
			slog.Debug("pointer up", "error", err)
			return
		}
		if out.Reverted {
			v.setStatus(fmt.Sprintf("%s is inside an obstacle, reverted", out.Endpoint))
		}
	}
}

func (v *viewer) setStatus(s string) {
	v.mu.Lock()
	v.status = s
	v.mu.Unlock()
	v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// raster returns an empty raster covering the drawing area: the whole
// screen but the status line.
func (v *viewer) raster() *Raster {
	w, h := v.screen.Size()
	if h > 1 {
		h--
	}
	return NewRaster(w, h)
}

func (v *viewer) paint() {
	v.mu.Lock()
	f := v.last
	status := v.status
	v.mu.Unlock()

	r := v.raster()
	r.Draw(f.View(v.view))

	v.screen.Clear()
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			c := r.At(x, y)
			if c.Ch == 0 {
				continue
			}
			style := tcell.StyleDefault
			if c.Color != "" {
				style = style.Foreground(tcell.GetColor(c.Color))
			}
			v.screen.SetContent(x, y, c.Ch, nil, style)
		}
	}

	line := fmt.Sprintf(" %s/%s  %s  [drag markers, r reload, n new seed, q quit]", v.mode, v.view, status)
	w, _ := v.screen.Size()
	for i, ch := range []rune(line) {
		if i >= w {
			break
		}
		v.screen.SetContent(i, r.H, ch, nil, tcell.StyleDefault.Reverse(true))
	}
	v.screen.Show()
}
