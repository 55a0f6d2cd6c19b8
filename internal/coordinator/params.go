package coordinator

import (
	"sync"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

// Params holds the externally owned view parameters. Form controls replace
// them wholesale; drags only touch the endpoint fields.
type Params struct {
	mu sync.RWMutex
	p  document.ViewParameters
}

func NewParams(p document.ViewParameters) *Params {
	return &Params{p: p}
}

func (p *Params) Get() document.ViewParameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.p
}

func (p *Params) Set(v document.ViewParameters) {
	p.mu.Lock()
	p.p = v
	p.mu.Unlock()
}

// SetEndpoint replaces start_x/start_y or goal_x/goal_y.
func (p *Params) SetEndpoint(ep document.Endpoint, pt document.Point) {
	p.mu.Lock()
	p.p = p.p.WithEndpoint(ep, pt)
	p.mu.Unlock()
}
