package app

import (
	"context"
	"log/slog"

	"github.com/soocke/serialscan/scanner"
	"github.com/soocke/serialscan/ui/presenter"
	"github.com/soocke/serialscan/ui/view"
)

// AppContainer adds the window and its presenters to the scan container.
type AppContainer struct {
	*scanner.Container

	RootView *view.RootView
	UI       view.UI

	// Presenters
	ScanPresenter    *presenter.ScanPresenter
	StatePresenter   *presenter.StatePresenter
	SessionPresenter *presenter.SessionPresenter
	ResultPresenter  *presenter.ResultPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs the view and presenters over core. Widgets are
// created later by RootView.Build.
func BuildContainer(ctx context.Context, core *scanner.Container, cfgPath string, logger *slog.Logger) *AppContainer {
	c := &AppContainer{Container: core}
	c.RootView = view.NewRootView(core.Config, cfgPath, logger)
	c.UI = c.RootView

	c.ScanPresenter = presenter.NewScanPresenter(ctx, core.Scan, core.Lifecycle, c.UI, logger)
	c.StatePresenter = presenter.NewStatePresenter(c.UI)
	core.Scheduler.AddListener(c.StatePresenter.OnState)
	c.SessionPresenter = presenter.NewSessionPresenter(core.Session, core.Scan, c.UI)
	c.ResultPresenter = presenter.NewResultPresenter(core.Lifecycle, core.Scan, c.UI, core.Config.UI.PreviewEvery)

	c.Loop = presenter.NewLoop(core.Pulse.Signal, c.ScanPresenter, c.StatePresenter, c.SessionPresenter, c.ResultPresenter, nil)
	return c
}
