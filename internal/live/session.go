package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/planviz/planviz/viewer-go/internal/coordinator"
	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/drag"
	"github.com/planviz/planviz/viewer-go/internal/engine"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Session is one browser connection driving its own coordinator. Pointer
// events come in over the socket and frames go back out.
type Session struct {
	ID       string
	ClientID string

	hub   *Hub
	conn  *websocket.Conn
	coord *coordinator.Coordinator
	send  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// SessionConfig is what a session needs to build its coordinator.
type SessionConfig struct {
	ID       string
	ClientID string
	Mode     document.Mode
	Views    []engine.View
	Params   document.ViewParameters
	Fetcher  coordinator.Fetcher
}

// NewSession creates a session. conn may be nil in tests; messages then only
// land in the send buffer. Background cycles run under ctx.
func NewSession(ctx context.Context, hub *Hub, conn *websocket.Conn, cfg SessionConfig) *Session {
	s := &Session{
		ID:       cfg.ID,
		ClientID: cfg.ClientID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
	s.coord = coordinator.New(cfg.Mode, cfg.Fetcher, cfg.Params,
		coordinator.WithViews(cfg.Views),
		coordinator.WithNotifier(s),
		coordinator.WithContext(ctx),
	)
	s.coord.OnRedraw(s.sendFrame)
	return s
}

func (s *Session) Coordinator() *coordinator.Coordinator { return s.coord }

// Notify reports a failed planning cycle to the log and to the browser.
func (s *Session) Notify(err error) {
	slog.Warn("planning cycle failed", "error", err, "session", s.ID)
	s.sendError(err.Error())
}

// Start sends the welcome message and runs the first full cycle in the
// background.
func (s *Session) Start() {
	s.Send(TypeWelcome, WelcomePayload{
		SessionID: s.ID,
		ClientID:  s.ClientID,
		Mode:      s.coord.Mode(),
		Views:     s.coord.Views(),
		Params:    s.coord.Params(),
		Canvas:    [2]int{document.CanvasWidth, document.CanvasHeight},
	})
	s.coord.Go(func(ctx context.Context) {
		_ = s.coord.Full(ctx)
	})
}

func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		if s.hub != nil {
			s.hub.Unregister(s)
		}
		s.Close(websocket.StatusNormalClosure, "")
	}()

	s.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("read error", "error", err, "session", s.ID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "session", s.ID)
			s.sendError("invalid message")
			continue
		}
		s.HandleMessage(&msg)
	}
}

func (s *Session) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-s.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "session", s.ID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// HandleMessage applies one client message. Cycles triggered by a message
// run in the background so pointer events keep flowing while a fetch is out.
func (s *Session) HandleMessage(msg *Message) {
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp, TypePointerCancel:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.sendError("invalid pointer payload")
			return
		}
		s.handlePointer(msg.Type, p)

	case TypeReload:
		s.coord.Go(func(ctx context.Context) { _ = s.coord.Full(ctx) })

	case TypeRegenerate:
		s.coord.Go(func(ctx context.Context) { _ = s.coord.Regenerate(ctx) })

	case TypeParamsSet:
		var p ParamsPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.sendError("invalid params payload")
			return
		}
		s.coord.Go(func(ctx context.Context) { _ = s.coord.SetParams(ctx, p.Params) })

	default:
		slog.Warn("unknown message type", "type", msg.Type, "session", s.ID)
		s.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *Session) handlePointer(typ string, p PointerPayload) {
	pt := document.Point{X: p.X, Y: p.Y}
	var err error
	switch typ {
	case TypePointerDown:
		_, _, err = s.coord.PointerDown(p.View, pt)
	case TypePointerMove:
		_, err = s.coord.PointerMove(p.View, pt)
	case TypePointerUp:
		var out drag.Outcome
		out, err = s.coord.PointerUp(p.View)
		if err == nil {
			s.Send(TypeDrag, DragPayload{View: p.View, Outcome: out})
		}
	case TypePointerCancel:
		err = s.coord.PointerCancel(p.View)
	}

	if err == nil {
		return
	}
	// Misordered pointer events are ignored; only unknown views are reported.
	if errors.Is(err, drag.ErrNotDragging) || errors.Is(err, drag.ErrAlreadyDragging) {
		slog.Debug("ignored pointer event", "type", typ, "view", p.View, "error", err, "session", s.ID)
		return
	}
	s.sendError(err.Error())
}

func (s *Session) sendFrame(f engine.Frame) {
	s.Send(TypeFrame, f)
}

func (s *Session) sendError(msg string) {
	s.Send(TypeError, ErrorPayload{Message: msg})
}

// Send queues a message. It drops the message when the buffer is full or the
// session is closed.
func (s *Session) Send(typ string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "error", err, "type", typ)
		return
	}
	data, err := json.Marshal(Message{Type: typ, SessionID: s.ID, Payload: raw})
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- data:
	default:
		slog.Warn("session send buffer full, dropping message", "session", s.ID, "type", typ)
	}
}

// Close stops the session. It is safe to call more than once.
func (s *Session) Close(code websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close(code, reason)
		}
	})
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }
