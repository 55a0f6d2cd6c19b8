//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/planviz/planviz/viewer-go/internal/coordinator"
	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/engine"
	"github.com/planviz/planviz/viewer-go/internal/planapi"
	"github.com/planviz/planviz/viewer-go/internal/presets"
)

var (
	coord     *coordinator.Coordinator
	presetSet *presets.Set
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	var err error
	presetSet, err = presets.Default()
	if err != nil {
		slog.Error("load presets", "error", err)
		return
	}

	// Create the engine API object
	planvizEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	planvizEngine.Set("load", js.FuncOf(load))
	planvizEngine.Set("reload", js.FuncOf(reload))
	planvizEngine.Set("regenerate", js.FuncOf(regenerate))
	planvizEngine.Set("setParams", js.FuncOf(setParams))
	planvizEngine.Set("pointerDown", js.FuncOf(pointerDown))
	planvizEngine.Set("pointerMove", js.FuncOf(pointerMove))
	planvizEngine.Set("pointerUp", js.FuncOf(pointerUp))
	planvizEngine.Set("pointerCancel", js.FuncOf(pointerCancel))

	// --- Queries (frontend ← backend) ---
	planvizEngine.Set("render", js.FuncOf(render))
	planvizEngine.Set("hitTest", js.FuncOf(hitTest))
	planvizEngine.Set("viewport", js.FuncOf(viewport))
	planvizEngine.Set("getParams", js.FuncOf(getParams))

	// Register on global scope
	js.Global().Set("planvizEngine", planvizEngine)

	// Signal that WASM is ready
	js.Global().Set("planvizWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(v interface{}, err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(string(data))
}

var errNotLoaded = errors.New("engine not loaded")

// callback invokes the global JS function name with args when it exists.
func callback(name string, args ...interface{}) {
	fn := js.Global().Get(name)
	if fn.Type() == js.TypeFunction {
		fn.Invoke(args...)
	}
}

// --- Command Handlers ---

// load(mode, plannerURL[, paramsJSON]) builds the coordinator for mode and
// starts the first full cycle. Frames are pushed to planvizOnFrame(json),
// failures to planvizOnError(message).
func load(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(nil, errors.New("usage: load(mode, plannerURL[, paramsJSON])"))
	}
	mode, err := document.ParseMode(args[0].String())
	if err != nil {
		return result(nil, err)
	}
	client, err := planapi.New(args[1].String())
	if err != nil {
		return result(nil, err)
	}
	preset, err := presetSet.For(mode)
	if err != nil {
		return result(nil, err)
	}
	params := preset.Params
	if len(args) > 2 && args[2].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[2].String()), &params); err != nil {
			return result(nil, err)
		}
	}

	coord = coordinator.New(mode, client, params,
		coordinator.WithViews(preset.Views),
		coordinator.WithNotifier(coordinator.NotifierFunc(func(err error) {
			slog.Warn("planning cycle failed", "error", err)
			callback("planvizOnError", err.Error())
		})),
	)
	coord.OnRedraw(func(f engine.Frame) {
		data, err := json.Marshal(f)
		if err != nil {
			slog.Error("marshal frame", "error", err)
			return
		}
		callback("planvizOnFrame", string(data))
	})
	coord.Go(func(ctx context.Context) { _ = coord.Full(ctx) })

	return result(map[string]interface{}{
		"mode":   mode,
		"views":  coord.Views(),
		"params": coord.Params(),
	}, nil)
}

// Cycles block on the network, so they never run on the JS event loop.
func reload(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	coord.Go(func(ctx context.Context) { _ = coord.Full(ctx) })
	return result(true, nil)
}

func regenerate(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	coord.Go(func(ctx context.Context) { _ = coord.Regenerate(ctx) })
	return result(true, nil)
}

func setParams(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	if len(args) < 1 {
		return result(nil, errors.New("missing params JSON"))
	}
	var p document.ViewParameters
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return result(nil, err)
	}
	coord.Go(func(ctx context.Context) { _ = coord.SetParams(ctx, p) })
	return result(true, nil)
}

// pointerArgs reads (view, x, y, surfaceWidth, surfaceHeight) and maps the
// surface pixel position to logical canvas units.
func pointerArgs(args []js.Value) (engine.View, document.Point, error) {
	if len(args) < 5 {
		return "", document.Point{}, errors.New("usage: (view, x, y, surfaceWidth, surfaceHeight)")
	}
	view := engine.View(args[0].String())
	inv := engine.Viewport(args[3].Float(), args[4].Float()).Invert()
	x, y := inv.TransformPoint(args[1].Float(), args[2].Float())
	return view, document.Point{X: x, Y: y}, nil
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	view, p, err := pointerArgs(args)
	if err != nil {
		return result(nil, err)
	}
	ep, ok, err := coord.PointerDown(view, p)
	return result(map[string]interface{}{"hit": ok, "endpoint": ep}, err)
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	view, p, err := pointerArgs(args)
	if err != nil {
		return result(nil, err)
	}
	return result(coord.PointerMove(view, p))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	if len(args) < 1 {
		return result(nil, errors.New("missing view"))
	}
	return result(coord.PointerUp(engine.View(args[0].String())))
}

func pointerCancel(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	if len(args) < 1 {
		return result(nil, errors.New("missing view"))
	}
	return result(true, coord.PointerCancel(engine.View(args[0].String())))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	return result(coord.Frame(), nil)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return js.ValueOf("")
	}
	view, p, err := pointerArgs(args)
	if err != nil {
		return js.ValueOf("")
	}
	ep, _ := coord.HitTest(view, p.X, p.Y)
	return js.ValueOf(string(ep))
}

// viewport(surfaceWidth, surfaceHeight) returns the canvas transform
// [a, b, c, d, e, f] for CanvasRenderingContext2D.setTransform.
func viewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(nil, errors.New("usage: viewport(surfaceWidth, surfaceHeight)"))
	}
	return result(engine.Viewport(args[0].Float(), args[1].Float()).ToSlice(), nil)
}

func getParams(this js.Value, args []js.Value) interface{} {
	if coord == nil {
		return result(nil, errNotLoaded)
	}
	return result(coord.Params(), nil)
}
