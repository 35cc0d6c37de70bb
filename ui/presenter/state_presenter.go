package presenter

import (
	"sync"
	"time"

	"github.com/soocke/serialscan/domain/scan"
)

// StateView sets the state label in the view.
type StateView interface{ SetStateLabel(string) }

// StatePresenter queues scheduler transitions from any goroutine and reflects
// the latest one on the next Tick.
type StatePresenter struct {
	view StateView

	mu      sync.Mutex
	latest  scan.State
	pending []scan.State
	shown   bool
}

func NewStatePresenter(view StateView) *StatePresenter {
	return &StatePresenter{view: view}
}

// OnState is a scan.Listener.
func (p *StatePresenter) OnState(_, next scan.State) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Tick updates the view with the most recent queued state.
func (p *StatePresenter) Tick(now time.Time) {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		if !p.shown {
			p.shown = true
			p.view.SetStateLabel("State: " + p.latest.String())
		}
		return
	}
	last := p.pending[len(p.pending)-1]
	p.pending = p.pending[:0]
	p.mu.Unlock()
	if last != p.latest || !p.shown {
		p.latest = last
		p.shown = true
		p.view.SetStateLabel("State: " + last.String())
	}
}
