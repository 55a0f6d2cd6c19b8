// Package drag implements the per-marker interaction state machine:
// Idle -> Dragging -> Settling -> Idle.
package drag

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/geometry"
)

var (
	ErrNotDragging     = errors.New("marker is not being dragged")
	ErrAlreadyDragging = errors.New("marker is already being dragged")
)

// Phase is the interaction phase of one marker.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Settling
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Settling:
		return "settling"
	}
	return "unknown"
}

// Marker is the rendered element a controller drives.
type Marker interface {
	Endpoint() document.Endpoint
	Position() document.Point
	MoveTo(p document.Point)
	SetHeld(held bool)
}

// Snapshots exposes the committed session state.
type Snapshots interface {
	Current() *document.Snapshot
	LastValid(ep document.Endpoint) (document.Point, bool)
}

// ParamSink receives the endpoint coordinate so the parameter fields never
// diverge from the marker.
type ParamSink interface {
	SetEndpoint(ep document.Endpoint, p document.Point)
}

// Deps wires a controller to the rest of the viewer.
type Deps struct {
	Snapshots Snapshots
	Params    ParamSink

	// Settle triggers exactly one partial cycle.
	Settle func()

	// Redraw repaints the marker layer. Optional.
	Redraw func()
}

// Outcome describes how a drag ended.
type Outcome struct {
	Endpoint document.Endpoint `json:"endpoint"`
	Position document.Point    `json:"position"`
	Reverted bool              `json:"reverted"`
}

// Controller drives one marker in one view. Pointer events for a marker
// may come from any goroutine; they are serialized here.
type Controller struct {
	marker Marker
	deps   Deps

	mu     sync.Mutex
	phase  Phase
	offset document.Point
	origin document.Point

	// Obstacle index of the last snapshot a drag ended on.
	indexed *document.Snapshot
	index   *geometry.ObstacleIndex
}

func NewController(marker Marker, deps Deps) *Controller {
	return &Controller{marker: marker, deps: deps}
}

func (c *Controller) Marker() Marker              { return c.marker }
func (c *Controller) Endpoint() document.Endpoint { return c.marker.Endpoint() }

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Begin grabs the marker. The offset between the marker center and the
// pointer is kept for the whole drag so the grab point stays under the
// pointer.
func (c *Controller) Begin(pointer document.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != Idle {
		return ErrAlreadyDragging
	}
	c.origin = c.marker.Position()
	c.offset = c.origin.Sub(pointer)
	c.phase = Dragging
	c.marker.SetHeld(true)
	return nil
}

// Move places the marker at pointer + offset and mirrors the coordinate
// into the parameter fields.
func (c *Controller) Move(pointer document.Point) (document.Point, error) {
	c.mu.Lock()
	if c.phase != Dragging {
		c.mu.Unlock()
		return document.Point{}, ErrNotDragging
	}
	p := pointer.Add(c.offset)
	c.marker.MoveTo(p)
	c.mu.Unlock()

	c.setParam(p)
	c.redraw()
	return p, nil
}

// End releases the marker and validates its position against the current
// snapshot's obstacles. A position inside an obstacle is reverted to the
// endpoint's last valid point, both on the marker and in the parameter
// fields. Without a snapshot or without a last valid point the position
// stands. End always triggers exactly one settle.
func (c *Controller) End() (Outcome, error) {
	c.mu.Lock()
	if c.phase != Dragging {
		c.mu.Unlock()
		return Outcome{}, ErrNotDragging
	}
	c.phase = Settling
	c.offset = document.Point{}

	ep := c.marker.Endpoint()
	out := Outcome{Endpoint: ep, Position: c.marker.Position()}

	if c.blocked(out.Position) {
		if last, ok := c.deps.Snapshots.LastValid(ep); ok {
			slog.Debug("marker dropped inside obstacle, reverting",
				"endpoint", ep, "position", out.Position, "lastValid", last)
			out.Position = last
			out.Reverted = true
			c.marker.MoveTo(last)
		}
	}
	c.marker.SetHeld(false)
	c.mu.Unlock()

	c.setParam(out.Position)
	if out.Reverted {
		c.redraw()
	}
	if c.deps.Settle != nil {
		c.deps.Settle()
	}

	c.mu.Lock()
	c.phase = Idle
	c.mu.Unlock()
	return out, nil
}

// Cancel abandons a drag: the marker and the parameter fields go back to
// where the drag began and no cycle is triggered.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.phase != Dragging {
		c.mu.Unlock()
		return ErrNotDragging
	}
	origin := c.origin
	c.offset = document.Point{}
	c.marker.MoveTo(origin)
	c.marker.SetHeld(false)
	c.phase = Idle
	c.mu.Unlock()

	c.setParam(origin)
	c.redraw()
	return nil
}

// blocked reports whether p lies inside an obstacle of the current
// snapshot. No snapshot means nothing is blocked. Caller holds c.mu.
func (c *Controller) blocked(p document.Point) bool {
	if c.deps.Snapshots == nil {
		return false
	}
	snap := c.deps.Snapshots.Current()
	if snap == nil {
		return false
	}
	if snap != c.indexed {
		c.index = geometry.NewObstacleIndex(snap.Obstacles)
		c.indexed = snap
	}
	return c.index.ContainsAny(p)
}

func (c *Controller) setParam(p document.Point) {
	if c.deps.Params != nil {
		c.deps.Params.SetEndpoint(c.marker.Endpoint(), p)
	}
}

func (c *Controller) redraw() {
	if c.deps.Redraw != nil {
		c.deps.Redraw()
	}
}
