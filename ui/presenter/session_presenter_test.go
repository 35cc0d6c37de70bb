package presenter

import (
	"testing"
	"time"

	"github.com/soocke/serialscan/ui/model"
)

type mockScanning struct{ on bool }

func (m *mockScanning) Scanning() bool { return m.on }

type mockSessionView struct {
	scan, total time.Duration
	scans       int
}

func (v *mockSessionView) SetSession(scan, total time.Duration, scans int) {
	v.scan, v.total, v.scans = scan, total, scans
}

func TestSessionPresenter_Tick(t *testing.T) {
	sess := model.NewSessionModel()
	scanning := &mockScanning{}
	view := &mockSessionView{}
	p := NewSessionPresenter(sess, scanning, view)

	t0 := time.Unix(1000, 0)
	scanning.on = true
	p.Tick(t0)
	p.Tick(t0.Add(3 * time.Second))
	if view.scan != 3*time.Second || view.scans != 1 {
		t.Fatalf("scan=%v scans=%d", view.scan, view.scans)
	}
	scanning.on = false
	p.Tick(t0.Add(4 * time.Second))
	if view.total < 3*time.Second {
		t.Fatalf("total=%v", view.total)
	}

	var nilP *SessionPresenter
	nilP.Tick(t0)
}
