// Package bookmark persists scenarios (mode, parameters, seed) so a view can
// be reopened later.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/typeid"
)

var (
	ErrNotFound = errors.New("bookmark not found")
	ErrInvalid  = errors.New("invalid bookmark")
)

type Bookmark struct {
	ID        string                  `json:"id"`
	Mode      document.Mode           `json:"mode"`
	Params    document.ViewParameters `json:"params"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Store is the persistence behind the service.
type Store interface {
	Insert(ctx context.Context, b *Bookmark) error
	Get(ctx context.Context, id string) (*Bookmark, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create stores a scenario. The seed must be set; a zero seed would plan a
// different obstacle field every time the bookmark is opened.
func (s *Service) Create(ctx context.Context, mode document.Mode, params document.ViewParameters) (*Bookmark, error) {
	if _, err := document.ParseMode(string(mode)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if params.Seed == 0 {
		return nil, fmt.Errorf("%w: seed is required", ErrInvalid)
	}
	if params.NumObstacles < 0 || params.MaxVertices < 0 || params.ObstacleSize < 0 {
		return nil, fmt.Errorf("%w: negative generation parameter", ErrInvalid)
	}

	b := &Bookmark{
		ID:        typeid.NewBookmarkID(),
		Mode:      mode,
		Params:    params,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("create bookmark: %w", err)
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Bookmark, error) {
	if err := typeid.Validate(id, typeid.PrefixBookmark); err != nil {
		return nil, ErrNotFound
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}
