package presenter

import (
	"time"

	"github.com/soocke/serialscan/ui/model"
)

// ScanningModel reports whether a scan is running.
type ScanningModel interface{ Scanning() bool }

// SessionView displays scan durations and the number of scans.
type SessionView interface {
	SetSession(scan, total time.Duration, scans int)
}

// SessionPresenter formats scan durations from the model to the view.
type SessionPresenter struct {
	sess *model.SessionModel
	scan ScanningModel
	view SessionView
}

func NewSessionPresenter(sess *model.SessionModel, scan ScanningModel, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, scan: scan, view: view}
}

// Tick advances the session model and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.scan == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.scan.Scanning(), now)
	s, t := p.sess.Values()
	p.view.SetSession(s, t, p.sess.Scans())
}
