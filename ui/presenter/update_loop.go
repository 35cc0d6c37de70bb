package presenter

import "time"

// Loop drives one UI tick: it pulses the scan frame clock, then lets each
// presenter flush to the view, then reschedules itself. The zero value is
// usable (methods are nil-safe).
type Loop struct {
	Pulse    func(time.Time)
	Scan     *ScanPresenter
	State    *StatePresenter
	Session  *SessionPresenter
	Result   *ResultPresenter
	Schedule func()
}

func NewLoop(pulse func(time.Time), scan *ScanPresenter, state *StatePresenter, sess *SessionPresenter, result *ResultPresenter, schedule func()) *Loop {
	return &Loop{Pulse: pulse, Scan: scan, State: state, Session: sess, Result: result, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.Pulse != nil {
		l.Pulse(now)
	}
	l.Scan.Tick()
	l.State.Tick(now)
	l.Session.Tick(now)
	l.Result.Tick()
	if l.Schedule != nil {
		l.Schedule()
	}
}
