package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/engine"
	"github.com/planviz/planviz/viewer-go/internal/presets"
)

var square = document.Polygon{{100, 100}, {200, 100}, {200, 200}, {100, 200}}

type fakeFetcher struct {
	mu    sync.Mutex
	seq   uint64
	calls []document.ViewParameters
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, mode document.Mode, p document.ViewParameters) (*document.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	return &document.Snapshot{
		ID:        fmt.Sprintf("snap_%d", f.seq),
		Mode:      mode,
		Seq:       f.seq,
		Seed:      p.Seed,
		Obstacles: []document.Polygon{square},
		Start:     p.Start,
		Goal:      p.Goal,
		Path:      []document.Point{p.Start, p.Goal},
	}, nil
}

func (f *fakeFetcher) Calls() []document.ViewParameters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]document.ViewParameters(nil), f.calls...)
}

func testParams() document.ViewParameters {
	return document.ViewParameters{
		NumObstacles: 3, MaxVertices: 6, ObstacleSize: 100, Seed: 7,
		Start: document.Point{X: 50, Y: 300},
		Goal:  document.Point{X: 550, Y: 300},
	}
}

func newTestSession(t *testing.T, f *fakeFetcher) *Session {
	t.Helper()
	s := NewSession(context.Background(), nil, nil, SessionConfig{
		ID:       "sess_test",
		ClientID: "client",
		Mode:     document.ModeVisibility,
		Params:   testParams(),
		Fetcher:  f,
	})
	t.Cleanup(func() { s.Close(websocket.StatusNormalClosure, "") })
	return s
}

// drain returns every queued message.
func drain(t *testing.T, s *Session) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data := <-s.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func find(msgs []Message, typ string) (Message, bool) {
	for _, m := range msgs {
		if m.Type == typ {
			return m, true
		}
	}
	return Message{}, false
}

func pointer(typ string, view engine.View, x, y float64) *Message {
	raw, _ := json.Marshal(PointerPayload{View: view, X: x, Y: y})
	return &Message{Type: typ, Payload: raw}
}

func TestStartSendsWelcomeThenFrame(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestSession(t, f)
	s.Start()
	s.Coordinator().Wait()

	msgs := drain(t, s)
	require.Equal(t, []string{TypeWelcome, TypeFrame}, types(msgs))

	var welcome WelcomePayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &welcome))
	assert.Equal(t, "sess_test", welcome.SessionID)
	assert.Equal(t, document.ModeVisibility, welcome.Mode)
	assert.Equal(t, []engine.View{engine.ViewObstacles, engine.ViewGraph}, welcome.Views)
	assert.Equal(t, [2]int{600, 600}, welcome.Canvas)

	var frame engine.Frame
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &frame))
	assert.Equal(t, engine.CycleFull, frame.Kind)
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Len(t, frame.Views, 2)
}

func TestDragToFreeSpace(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestSession(t, f)
	s.Start()
	s.Coordinator().Wait()
	drain(t, s)

	s.HandleMessage(pointer(TypePointerDown, engine.ViewGraph, 52, 302))
	s.HandleMessage(pointer(TypePointerMove, engine.ViewGraph, 12, 12))
	s.HandleMessage(pointer(TypePointerUp, engine.ViewGraph, 12, 12))
	s.Coordinator().Wait()

	msgs := drain(t, s)
	d, ok := find(msgs, TypeDrag)
	require.True(t, ok, types(msgs))
	var out DragPayload
	require.NoError(t, json.Unmarshal(d.Payload, &out))
	assert.Equal(t, document.Start, out.Endpoint)
	assert.Equal(t, document.Point{X: 10, Y: 10}, out.Position)
	assert.False(t, out.Reverted)

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, document.Point{X: 10, Y: 10}, calls[1].Start)
}

func TestDragIntoObstacleReverts(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestSession(t, f)
	s.Start()
	s.Coordinator().Wait()
	drain(t, s)

	s.HandleMessage(pointer(TypePointerDown, engine.ViewObstacles, 550, 300))
	s.HandleMessage(pointer(TypePointerMove, engine.ViewObstacles, 150, 150))
	s.HandleMessage(pointer(TypePointerUp, engine.ViewObstacles, 150, 150))
	s.Coordinator().Wait()

	d, ok := find(drain(t, s), TypeDrag)
	require.True(t, ok)
	var out DragPayload
	require.NoError(t, json.Unmarshal(d.Payload, &out))
	assert.True(t, out.Reverted)
	assert.Equal(t, document.Point{X: 550, Y: 300}, out.Position)
	assert.Equal(t, document.Point{X: 550, Y: 300}, s.Coordinator().Params().Goal)
}

func TestMisorderedPointerEventsAreIgnored(t *testing.T) {
	s := newTestSession(t, &fakeFetcher{})
	s.HandleMessage(pointer(TypePointerUp, engine.ViewGraph, 0, 0))
	s.HandleMessage(pointer(TypePointerMove, engine.ViewGraph, 0, 0))
	s.HandleMessage(pointer(TypePointerCancel, engine.ViewGraph, 0, 0))
	assert.Empty(t, drain(t, s))
}

func TestBadMessagesReportErrors(t *testing.T) {
	s := newTestSession(t, &fakeFetcher{})

	s.HandleMessage(&Message{Type: "teleport"})
	s.HandleMessage(&Message{Type: TypePointerDown, Payload: json.RawMessage(`"nope"`)})
	s.HandleMessage(&Message{Type: TypeParamsSet, Payload: json.RawMessage(`[]`)})
	s.HandleMessage(pointer(TypePointerDown, engine.ViewQuadtree, 50, 300))

	msgs := drain(t, s)
	assert.Equal(t, []string{TypeError, TypeError, TypeError, TypeError}, types(msgs))

	var p ErrorPayload
	require.NoError(t, json.Unmarshal(msgs[3].Payload, &p))
	assert.Contains(t, p.Message, "unknown view")
}

func TestFetchFailurePushesError(t *testing.T) {
	s := newTestSession(t, &fakeFetcher{err: errors.New("planner down")})
	s.HandleMessage(&Message{Type: TypeReload})
	s.Coordinator().Wait()

	msgs := drain(t, s)
	require.Equal(t, []string{TypeError}, types(msgs))
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &p))
	assert.Contains(t, p.Message, "planner down")
}

func TestParamsSetAndRegenerate(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestSession(t, f)

	p := testParams()
	p.NumObstacles = 5
	raw, _ := json.Marshal(ParamsPayload{Params: p})
	s.HandleMessage(&Message{Type: TypeParamsSet, Payload: raw})
	s.Coordinator().Wait()
	s.HandleMessage(&Message{Type: TypeRegenerate})
	s.Coordinator().Wait()

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 5, calls[0].NumObstacles)
	assert.Equal(t, 5, calls[1].NumObstacles)
	assert.Equal(t, []string{TypeFrame, TypeFrame}, types(drain(t, s)))
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	s := newTestSession(t, &fakeFetcher{})
	s.Close(websocket.StatusNormalClosure, "")
	s.Close(websocket.StatusNormalClosure, "")
	s.Send(TypeError, ErrorPayload{Message: "late"})
	assert.Empty(t, drain(t, s))
}

func TestHub(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	s := newTestSession(t, &fakeFetcher{})
	hub.Register(s)
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, time.Millisecond)

	hub.Unregister(s)
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, time.Millisecond)

	other := newTestSession(t, &fakeFetcher{})
	hub.Register(other)
	hub.Stop()
	assert.Equal(t, 0, hub.Len())
	select {
	case <-other.Done():
	default:
		t.Fatal("session still open after Stop")
	}

	late := newTestSession(t, &fakeFetcher{})
	hub.Register(late)
	select {
	case <-late.Done():
	default:
		t.Fatal("session registered on a stopped hub is still open")
	}
}

func TestServeWS(t *testing.T) {
	set, err := presets.Default()
	require.NoError(t, err)

	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	r := mux.NewRouter()
	r.HandleFunc("/ws/{mode}", NewHandler(hub, &fakeFetcher{}, set, nil).ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/quadtree?seed=42"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() Message {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	welcome := read()
	require.Equal(t, TypeWelcome, welcome.Type)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, int64(42), wp.Params.Seed)
	assert.True(t, strings.HasPrefix(wp.SessionID, "sess_"))
	assert.Equal(t, engine.DefaultViews(document.ModeQuadtree), wp.Views)

	assert.Equal(t, TypeFrame, read().Type)
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, time.Millisecond)
}

func TestServeWSRejectsUnknownMode(t *testing.T) {
	set, err := presets.Default()
	require.NoError(t, err)

	r := mux.NewRouter()
	r.HandleFunc("/ws/{mode}", NewHandler(NewHub(), &fakeFetcher{}, set, nil).ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/hexgrid", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
