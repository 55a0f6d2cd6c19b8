// Package planapi talks to the planning backend: it builds the per-mode
// query, issues it, validates the response and normalizes it into a
// document.Snapshot.
package planapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/typeid"
)

const maxResponseSize = 32 << 20 // 32MB

var (
	ErrTransport = errors.New("planner transport failure")
	ErrStatus    = errors.New("planner returned an error status")
	ErrSchema    = errors.New("planner response does not match schema")
	ErrDecode    = errors.New("planner response could not be decoded")
)

var modePaths = map[document.Mode]string{
	document.ModeLineSweep:  "/line_sweep/graph_data_line_sweep_random",
	document.ModeQuadtree:   "/quadtree/graph_data_quadtree",
	document.ModeVisibility: "/visibility/graph_data_visibility",
}

// Client fetches planning snapshots. It is safe for concurrent use; several
// requests may be in flight and complete in any order. Each snapshot carries
// the sequence number assigned when its request was issued.
type Client struct {
	baseURL    string
	httpClient *http.Client
	width      int
	height     int
	validator  *validator
	seq        atomic.Uint64
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithCanvas overrides the logical canvas size sent to the backend.
func WithCanvas(width, height int) Option {
	return func(c *Client) {
		c.width = width
		c.height = height
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("planner url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("planner url %q: scheme must be http or https", baseURL)
	}

	v, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("load response schemas: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		width:      document.CanvasWidth,
		height:     document.CanvasHeight,
		validator:  v,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch issues one request and returns the normalized snapshot. On any
// failure it returns an error wrapping one of ErrTransport, ErrStatus,
// ErrSchema or ErrDecode and no snapshot.
func (c *Client) Fetch(ctx context.Context, mode document.Mode, params document.ViewParameters) (*document.Snapshot, error) {
	path, ok := modePaths[mode]
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	seq := c.seq.Add(1)
	requestID := typeid.NewRequestID()
	u := c.baseURL + path + "?" + Query(mode, params, c.width, c.height).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	slog.Debug("planner request", "mode", mode, "seq", seq, "request", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if err := c.validator.validate(mode, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	snap, err := decode(mode, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	snap.ID = typeid.NewSnapshotID()
	snap.Seq = seq
	if snap.Seed == 0 {
		snap.Seed = params.Seed
	}

	slog.Debug("planner response", "mode", mode, "seq", seq, "request", requestID,
		"obstacles", len(snap.Obstacles), "path", len(snap.Path))

	return snap, nil
}
