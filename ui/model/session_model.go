package model

import (
	"time"
)

// SessionModel tracks how long the current scan has been running, the time
// spent scanning overall and how many scans were started. Presenters poll
// Values() on each tick. The zero value is ready to use.
type SessionModel struct {
	active      bool
	scanStart   time.Time
	lastScan    time.Duration
	accumulated time.Duration
	scans       int
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick advances the model with the current scanning state at now.
func (m *SessionModel) OnTick(scanning bool, now time.Time) {
	if m == nil {
		return
	}
	switch {
	case scanning && !m.active:
		m.active = true
		m.scanStart = now
		m.lastScan = 0
		m.scans++
	case scanning:
		m.lastScan = now.Sub(m.scanStart)
	case m.active:
		m.lastScan = now.Sub(m.scanStart)
		m.accumulated += m.lastScan
		m.active = false
	}
}

// Values returns the duration of the current (or last) scan and the total
// time spent scanning, including the ongoing scan.
func (m *SessionModel) Values() (scan, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	scan = m.lastScan
	total = m.accumulated
	if m.active {
		total += scan
	}
	return
}

// Scans returns how many scans have been started.
func (m *SessionModel) Scans() int {
	if m == nil {
		return 0
	}
	return m.scans
}
