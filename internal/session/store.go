// Package session holds the current planning snapshot and the last
// known-valid marker positions.
package session

import (
	"errors"
	"sync"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

var (
	// ErrStale is returned when a snapshot's sequence number is not newer
	// than the last committed one.
	ErrStale = errors.New("stale snapshot")

	ErrNilSnapshot = errors.New("nil snapshot")
)

// Store is written only by the render coordinator's commit step and read by
// drag controllers and the renderer. Commit swaps the snapshot pointer, so a
// reader never observes a half-replaced snapshot.
type Store struct {
	mu        sync.RWMutex
	current   *document.Snapshot
	seq       uint64
	lastValid map[document.Endpoint]document.Point
}

func NewStore() *Store {
	return &Store{
		lastValid: make(map[document.Endpoint]document.Point, len(document.Endpoints)),
	}
}

// Current returns the committed snapshot, or nil before the first commit.
func (s *Store) Current() *document.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// LastValid returns the endpoint position of the last committed snapshot.
func (s *Store) LastValid(ep document.Endpoint) (document.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.lastValid[ep]
	return p, ok
}

// Seq returns the sequence number of the last committed snapshot.
func (s *Store) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Commit replaces the current snapshot and refreshes the last-valid
// endpoints from it. A snapshot with a non-zero Seq that is not newer than
// the last committed one is rejected with ErrStale and leaves the store
// untouched. Seq zero means untagged and is always accepted.
func (s *Store) Commit(snap *document.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Seq != 0 && snap.Seq <= s.seq {
		return ErrStale
	}

	s.current = snap
	if snap.Seq > s.seq {
		s.seq = snap.Seq
	}
	for _, ep := range document.Endpoints {
		s.lastValid[ep] = snap.Endpoint(ep)
	}
	return nil
}
