package cli

import (
	"context"
	"fmt"
	"log/slog"

	coreapp "repolens/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(ctx context.Context, app *coreapp.App, opts cliOptions) error {
	m := initialModel(app, opts.args)
	p := tea.NewProgram(m, tea.WithAltScreen())

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{
			source:  update.Source,
			result:  update.Result,
			entries: app.AnalysisService().History(ctx),
			err:     update.Err,
		})
	})

	go func() {
		if len(opts.args) > 0 {
			p.Send(ingestFiles(ctx, app, opts.args))
		} else {
			p.Send(updateMsg{entries: app.AnalysisService().History(ctx)})
		}
	}()

	if opts.watch && len(opts.args) > 0 {
		go watchForUI(ctx, app, opts.args, p.Send)
	}

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}

// watchForUI runs the live reload loop and surfaces a failure to start it on
// the status line instead of losing it.
func watchForUI(ctx context.Context, app *coreapp.App, files []string, send func(tea.Msg)) {
	if err := app.Watch(ctx, files); err != nil {
		slog.Error("watch failed", "files", files, "error", err)
		send(updateMsg{
			entries: app.AnalysisService().History(ctx),
			err:     fmt.Errorf("live reload disabled: %w", err),
		})
	}
}
