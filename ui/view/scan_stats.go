package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// ScanStats shows scan durations and pipeline counters.
type ScanStats interface {
	SetSession(scan, total time.Duration, scans int)
	SetCounters(frames, ocrAttempts uint64)
}

type scanStats struct {
	sessionLbl *LabelWidget
	totalLbl   *LabelWidget
	scansLbl   *LabelWidget
	framesLbl  *LabelWidget
	ocrLbl     *LabelWidget
}

// NewScanStats creates the stat labels in a single row of parent.
func NewScanStats(parent *FrameWidget, row int) ScanStats {
	s := &scanStats{
		sessionLbl: Label(Width(14), Anchor("w")),
		totalLbl:   Label(Width(14), Anchor("w")),
		scansLbl:   Label(Width(10), Anchor("w")),
		framesLbl:  Label(Width(14), Anchor("w")),
		ocrLbl:     Label(Width(10), Anchor("w")),
	}
	for col, lbl := range []*LabelWidget{s.sessionLbl, s.totalLbl, s.scansLbl, s.framesLbl, s.ocrLbl} {
		if parent != nil {
			Grid(lbl, In(parent), Row(row), Column(col), Sticky("w"), Padx("0.2m"))
		} else {
			Grid(lbl, Row(row), Column(col), Sticky("w"), Padx("0.2m"))
		}
	}
	s.SetSession(0, 0, 0)
	s.SetCounters(0, 0)
	return s
}

func (s *scanStats) SetSession(scan, total time.Duration, scans int) {
	if s == nil || s.sessionLbl == nil {
		return
	}
	s.sessionLbl.Configure(Txt("Scan: " + clock(scan)))
	s.totalLbl.Configure(Txt("Total: " + clock(total)))
	s.scansLbl.Configure(Txt(fmt.Sprintf("Scans: %d", scans)))
}

func (s *scanStats) SetCounters(frames, ocrAttempts uint64) {
	if s == nil || s.framesLbl == nil {
		return
	}
	s.framesLbl.Configure(Txt(fmt.Sprintf("Frames: %d", frames)))
	s.ocrLbl.Configure(Txt(fmt.Sprintf("OCR: %d", ocrAttempts)))
}

// clock renders d as mm:ss.
func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
