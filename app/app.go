package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/serialscan/debug"
	"github.com/soocke/serialscan/scanner"
	"github.com/soocke/serialscan/ui/theme"
	"github.com/soocke/serialscan/ui/view"
)

const (
	shutdownTimeout = 3 * time.Second
	debugInterval   = 10 * time.Second
)

type app struct {
	c       *AppContainer
	logger  *slog.Logger
	tick    time.Duration
	afterID string
	cancel  context.CancelFunc
	closed  bool
}

// NewApp creates the main window over core.
func NewApp(title string, width, height int, core *scanner.Container, cfgPath string, logger *slog.Logger) *app {
	ctx, cancel := context.WithCancel(context.Background())
	a := &app{logger: logger, cancel: cancel, tick: time.Duration(core.Config.UI.TickMs) * time.Millisecond}
	a.c = BuildContainer(ctx, core, cfgPath, logger)
	a.c.Loop.Schedule = a.scheduleUpdate

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	theme.SetDark(core.Config.UI.Dark)

	if core.Config.Debug {
		debug.StartGoroutineLogger(ctx, debugInterval, logger)
		debug.StartMemLogger(ctx, debugInterval, logger)
		core.Telemetry.StartReporter(ctx, logger, debugInterval)
	}
	return a
}

// Start builds the widgets, begins loading OCR and blocks in the Tk loop.
func (a *app) Start() {
	a.c.RootView.Build(view.Handlers{
		OnToggleScan: a.c.ScanPresenter.Toggle,
		OnSubmit:     a.c.ScanPresenter.Submit,
		OnClear:      a.c.ScanPresenter.Clear,
		OnToggleTheme: func() {
			dark := theme.ToggleDark()
			a.c.Config.UI.Dark = dark
		},
		OnExit: a.exitHandler,
	})
	if err := a.c.Lifecycle.Init(context.Background()); err != nil && a.logger != nil {
		a.logger.Warn("ocr init", "error", err)
	}
	a.scheduleUpdate()
	App.Wait()
}

func (a *app) exitHandler() {
	if a.closed {
		return
	}
	a.closed = true
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
		a.afterID = ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.c.Close(ctx); err != nil && a.logger != nil {
		a.logger.Warn("shutdown", "error", err)
	}
	a.cancel()
	Destroy(App)
}

func (a *app) scheduleUpdate() {
	if a.closed {
		return
	}
	// TclAfter keeps every tick on Tk's event loop thread.
	a.afterID = TclAfter(a.tick, func() { a.c.Loop.Tick() })
}
