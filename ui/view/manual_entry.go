package view

import (
	"strings"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ManualEntry lets the user type a serial when the label cannot be scanned.
type ManualEntry interface {
	Clear()
}

type manualEntry struct {
	input  *TextWidget
	submit *ButtonWidget
}

// NewManualEntry grids a one-line input and a Submit button on row. onSubmit
// receives the raw text and reports whether it was accepted; accepted text is
// cleared from the input.
func NewManualEntry(row int, onSubmit func(text string) bool) ManualEntry {
	m := &manualEntry{}
	lbl := Label(Txt("Manual serial"), Anchor("w"))
	Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
	m.input = Text(Height(1), Width(24))
	Grid(m.input, Row(row), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
	m.submit = Button(Txt("Submit"), Command(func() {
		if onSubmit != nil && onSubmit(m.text()) {
			m.Clear()
		}
	}))
	Grid(m.submit, Row(row), Column(3), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
	return m
}

func (m *manualEntry) text() string {
	if m == nil || m.input == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(m.input.Get("1.0", END), ""))
}

func (m *manualEntry) Clear() {
	if m == nil || m.input == nil {
		return
	}
	m.input.Delete("1.0", END)
}
