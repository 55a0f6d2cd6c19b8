// Package coordinator ties parameter edits and drag releases to exactly one
// fetch each and to the right subset of redraws.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/drag"
	"github.com/planviz/planviz/viewer-go/internal/engine"
	"github.com/planviz/planviz/viewer-go/internal/session"
)

// ErrUnknownView is returned for pointer events on a view the coordinator
// does not draw.
var ErrUnknownView = errors.New("unknown view")

// Fetcher issues one planning request per call.
type Fetcher interface {
	Fetch(ctx context.Context, mode document.Mode, params document.ViewParameters) (*document.Snapshot, error)
}

// Notifier receives fetch failures. Failures never clear state.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// LogNotifier reports failures through slog.
type LogNotifier struct{}

func (LogNotifier) Notify(err error) {
	slog.Warn("planning cycle failed", "error", err)
}

type Option func(*Coordinator)

func WithViews(views []engine.View) Option {
	return func(c *Coordinator) { c.views = views }
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

func WithStore(s *session.Store) Option {
	return func(c *Coordinator) { c.store = s }
}

// WithContext sets the context background cycles (drag settles) run under.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) { c.ctx = ctx }
}

// WithSeedSource replaces the random seed generator used by Regenerate.
func WithSeedSource(fn func() int64) Option {
	return func(c *Coordinator) { c.newSeed = fn }
}

// Coordinator runs full and partial cycles for one mode.
type Coordinator struct {
	mode     document.Mode
	views    []engine.View
	fetcher  Fetcher
	store    *session.Store
	params   *Params
	notifier Notifier
	ctx      context.Context
	newSeed  func() int64

	// mu serializes commit + render so the engine always shows the newest
	// committed snapshot.
	mu         sync.Mutex
	engine     *engine.Engine
	baseParams *document.ViewParameters

	controllers map[engine.View]map[document.Endpoint]*drag.Controller
	activeMu    sync.Mutex
	active      map[engine.View]*drag.Controller

	redrawMu sync.RWMutex
	redraw   []func(engine.Frame)

	wg sync.WaitGroup
}

// New creates a coordinator. A zero seed in params is replaced with a
// time-based one so partial cycles always have a seed to thread through.
func New(mode document.Mode, fetcher Fetcher, params document.ViewParameters, opts ...Option) *Coordinator {
	c := &Coordinator{
		mode:     mode,
		fetcher:  fetcher,
		notifier: LogNotifier{},
		ctx:      context.Background(),
		newSeed:  func() int64 { return rand.Int64N(1 << 31) },
		active:   make(map[engine.View]*drag.Controller),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = session.NewStore()
	}
	if params.Seed == 0 {
		params.Seed = time.Now().UnixMilli()
	}
	c.params = NewParams(params)
	c.engine = engine.NewEngine(mode, c.views)
	c.views = c.engine.Views()

	c.controllers = make(map[engine.View]map[document.Endpoint]*drag.Controller, len(c.views))
	for _, v := range c.views {
		c.controllers[v] = make(map[document.Endpoint]*drag.Controller, len(document.Endpoints))
		for _, ep := range document.Endpoints {
			c.controllers[v][ep] = drag.NewController(c.engine.Marker(v, ep), drag.Deps{
				Snapshots: c.store,
				Params:    c.params,
				Settle:    c.settle,
				Redraw:    c.RedrawMarkers,
			})
		}
	}
	return c
}

func (c *Coordinator) Mode() document.Mode             { return c.mode }
func (c *Coordinator) Views() []engine.View            { return c.views }
func (c *Coordinator) Store() *session.Store           { return c.store }
func (c *Coordinator) Params() document.ViewParameters { return c.params.Get() }

// Controller returns the drag controller of ep in view, or nil.
func (c *Coordinator) Controller(v engine.View, ep document.Endpoint) *drag.Controller {
	return c.controllers[v][ep]
}

// Controllers returns every drag controller, view by view.
func (c *Coordinator) Controllers() []*drag.Controller {
	var out []*drag.Controller
	for _, v := range c.views {
		for _, ep := range document.Endpoints {
			out = append(out, c.controllers[v][ep])
		}
	}
	return out
}

// OnRedraw subscribes fn to every frame the coordinator produces.
func (c *Coordinator) OnRedraw(fn func(engine.Frame)) {
	c.redrawMu.Lock()
	c.redraw = append(c.redraw, fn)
	c.redrawMu.Unlock()
}

func (c *Coordinator) emit(f engine.Frame) {
	c.redrawMu.RLock()
	subs := c.redraw
	c.redrawMu.RUnlock()
	for _, fn := range subs {
		fn(f)
	}
}

// Frame returns the current frame without running a cycle.
func (c *Coordinator) Frame() engine.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Frame()
}

// Full fetches with the current parameters, commits and redraws every layer.
func (c *Coordinator) Full(ctx context.Context) error {
	return c.cycle(ctx, engine.CycleFull)
}

// Partial fetches with the current parameters, commits and redraws the
// graph, path and marker layers only.
func (c *Coordinator) Partial(ctx context.Context) error {
	return c.cycle(ctx, engine.CyclePartial)
}

// Regenerate runs a full cycle with a fresh random seed.
func (c *Coordinator) Regenerate(ctx context.Context) error {
	p := c.params.Get()
	p.Seed = c.newSeed()
	c.params.Set(p)
	return c.Full(ctx)
}

// SetParams replaces the parameters. An edit that only moves start or goal
// runs a partial cycle; anything else regenerates the structure.
func (c *Coordinator) SetParams(ctx context.Context, p document.ViewParameters) error {
	c.params.Set(p)
	if c.structureUnchanged(p) {
		return c.Partial(ctx)
	}
	return c.Full(ctx)
}

// SetEndpoint is an endpoint-only parameter edit.
func (c *Coordinator) SetEndpoint(ctx context.Context, ep document.Endpoint, p document.Point) error {
	c.params.SetEndpoint(ep, p)
	return c.Partial(ctx)
}

func (c *Coordinator) structureUnchanged(p document.ViewParameters) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseParams != nil && c.baseParams.StructureEqual(p)
}

func (c *Coordinator) cycle(ctx context.Context, kind engine.CycleKind) error {
	params := c.params.Get()

	snap, err := c.fetcher.Fetch(ctx, c.mode, params)
	if err != nil {
		err = fmt.Errorf("%s cycle for %s: %w", kind, c.mode, err)
		c.notifier.Notify(err)
		return err
	}

	c.mu.Lock()
	if err := c.store.Commit(snap); err != nil {
		c.mu.Unlock()
		if errors.Is(err, session.ErrStale) {
			slog.Debug("dropping stale snapshot", "mode", c.mode, "seq", snap.Seq, "committed", c.store.Seq())
			return nil
		}
		c.notifier.Notify(err)
		return err
	}

	// A partial result whose structure parameters differ from the drawn
	// base (a newer full cycle lost the race) must redraw the base too.
	if kind == engine.CyclePartial && (c.baseParams == nil || !c.baseParams.StructureEqual(params)) {
		kind = engine.CycleFull
	}
	if kind == engine.CycleFull {
		c.engine.Full(snap)
		c.baseParams = &params
	} else {
		c.engine.Partial(snap)
	}
	frame := c.engine.Frame()
	c.mu.Unlock()

	slog.Debug("cycle committed", "mode", c.mode, "kind", kind, "seq", snap.Seq,
		"obstacles", len(snap.Obstacles), "path", len(snap.Path))
	c.emit(frame)
	return nil
}

// RedrawMarkers repaints the marker layers only.
func (c *Coordinator) RedrawMarkers() {
	c.mu.Lock()
	c.engine.RefreshMarkers()
	frame := c.engine.Frame()
	c.mu.Unlock()
	c.emit(frame)
}

// settle runs the partial cycle of a drag release in the background.
// Failures are reported through the notifier.
func (c *Coordinator) settle() {
	c.Go(func(ctx context.Context) {
		_ = c.Partial(ctx)
	})
}

// Go runs fn in the background under the coordinator's context.
func (c *Coordinator) Go(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
}

// Wait blocks until every background cycle has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// HitTest returns the marker under the logical point (x, y) in view.
func (c *Coordinator) HitTest(view engine.View, x, y float64) (document.Endpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.HitTest(view, x, y)
}

// PointerDown starts dragging the marker under p in view. ok is false when
// no marker is hit.
func (c *Coordinator) PointerDown(view engine.View, p document.Point) (document.Endpoint, bool, error) {
	if _, known := c.controllers[view]; !known {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}
	ep, ok := c.HitTest(view, p.X, p.Y)
	if !ok {
		return "", false, nil
	}

	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	if c.active[view] != nil {
		return "", false, drag.ErrAlreadyDragging
	}
	ctrl := c.controllers[view][ep]
	if err := ctrl.Begin(p); err != nil {
		return "", false, err
	}
	c.active[view] = ctrl
	return ep, true, nil
}

// PointerMove moves the marker being dragged in view.
func (c *Coordinator) PointerMove(view engine.View, p document.Point) (document.Point, error) {
	ctrl := c.activeController(view, false)
	if ctrl == nil {
		return document.Point{}, drag.ErrNotDragging
	}
	return ctrl.Move(p)
}

// PointerUp releases the marker being dragged in view.
func (c *Coordinator) PointerUp(view engine.View) (drag.Outcome, error) {
	ctrl := c.activeController(view, true)
	if ctrl == nil {
		return drag.Outcome{}, drag.ErrNotDragging
	}
	return ctrl.End()
}

// PointerCancel abandons the drag in view.
func (c *Coordinator) PointerCancel(view engine.View) error {
	ctrl := c.activeController(view, true)
	if ctrl == nil {
		return drag.ErrNotDragging
	}
	return ctrl.Cancel()
}

func (c *Coordinator) activeController(view engine.View, release bool) *drag.Controller {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	ctrl := c.active[view]
	if release {
		delete(c.active, view)
	}
	return ctrl
}
