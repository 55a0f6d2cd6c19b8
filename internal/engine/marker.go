package engine

import (
	"sync"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

// Marker is the rendered state of one draggable endpoint in one view. Its
// position is mutated in place by a drag controller and by cycle redraws;
// a held marker (mid-drag) is left alone by redraws.
type Marker struct {
	view     View
	endpoint document.Endpoint

	mu   sync.Mutex
	pos  document.Point
	held bool
}

func newMarker(view View, ep document.Endpoint) *Marker {
	return &Marker{view: view, endpoint: ep}
}

func (m *Marker) View() View                  { return m.view }
func (m *Marker) Endpoint() document.Endpoint { return m.endpoint }

// ObjectID identifies the marker's draw commands.
func (m *Marker) ObjectID() string {
	return string(m.view) + ":" + string(m.endpoint)
}

func (m *Marker) Position() document.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *Marker) MoveTo(p document.Point) {
	m.mu.Lock()
	m.pos = p
	m.mu.Unlock()
}

// SetHeld marks the marker as grabbed by a pointer.
func (m *Marker) SetHeld(held bool) {
	m.mu.Lock()
	m.held = held
	m.mu.Unlock()
}

func (m *Marker) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// sync moves the marker to p unless it is held.
func (m *Marker) sync(p document.Point) {
	m.mu.Lock()
	if !m.held {
		m.pos = p
	}
	m.mu.Unlock()
}

func (m *Marker) hit(p document.Point) bool {
	return m.Position().Distance(p) <= MarkerRadius
}
