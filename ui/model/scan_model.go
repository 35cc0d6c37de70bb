package model

import (
	"sync"
	"sync/atomic"
)

// ScanModel holds what the window shows about the current scan. Scan
// callbacks arrive on the scan goroutine while presenters read on the Tk
// thread, so every field is synchronized. The zero value is usable.
type ScanModel struct {
	scanning atomic.Bool

	mu      sync.Mutex
	serial  string
	errMsg  string
	version uint64
}

// Scanning reports whether the user has a scan running.
func (m *ScanModel) Scanning() bool {
	if m == nil {
		return false
	}
	return m.scanning.Load()
}

// SetScanning stores the scanning flag.
func (m *ScanModel) SetScanning(b bool) {
	if m == nil {
		return
	}
	m.scanning.Store(b)
}

// SetSerial records a found serial and clears any error.
func (m *ScanModel) SetSerial(serial string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.serial = serial
	m.errMsg = ""
	m.version++
	m.mu.Unlock()
}

// SetError records an error message shown in the banner.
func (m *ScanModel) SetError(msg string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.errMsg = msg
	m.version++
	m.mu.Unlock()
}

// Clear resets the serial and the error.
func (m *ScanModel) Clear() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.serial = ""
	m.errMsg = ""
	m.version++
	m.mu.Unlock()
}

// Result returns serial, error and a version that changes on every update
// so presenters can skip redundant redraws.
func (m *ScanModel) Result() (serial, errMsg string, version uint64) {
	if m == nil {
		return "", "", 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serial, m.errMsg, m.version
}
