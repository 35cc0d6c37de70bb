// Package decode turns camera frames into normalized serial numbers using a
// fixed set of decoder tiers.
package decode

import "strings"

// Result is the outcome of one decode attempt.
type Result struct {
	Serial string
	Found  bool
	// Source names the tier that produced the serial.
	Source string
}

// Found wraps a normalized serial. An empty serial after normalization is
// reported as not found.
func Found(serial, source string) Result {
	s := Normalize(serial)
	if s == "" {
		return NotFound()
	}
	return Result{Serial: s, Found: true, Source: source}
}

// NotFound is the zero result.
func NotFound() Result { return Result{} }

// Normalize trims surrounding whitespace and upper-cases the text. It is
// idempotent.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
