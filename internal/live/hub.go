// Package live serves viewer sessions over WebSocket: the browser sends
// pointer events and parameter edits, the server answers with frames.
package live

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Hub tracks the open sessions so shutdown can close them all.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	register   chan *Session
	unregister chan *Session
	stop       chan struct{}
	stopOnce   sync.Once
	stopped    chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case s := <-h.register:
			h.addSession(s)
		case s := <-h.unregister:
			h.removeSession(s)
		case <-h.stop:
			h.closeAll()
			return
		}
	}
}

// Register adds s. A stopped hub closes s instead.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.stop:
		s.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.stop:
	}
}

// Stop closes every session and waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.stopped
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	n := len(h.sessions)
	h.mu.Unlock()
	slog.Info("session opened", "session", s.ID, "mode", s.coord.Mode(), "sessions", n)
}

func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	n := len(h.sessions)
	h.mu.Unlock()
	slog.Info("session closed", "session", s.ID, "sessions", n)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close(websocket.StatusGoingAway, "server shutting down")
	}
	slog.Info("closed all sessions", "count", len(sessions))
}
