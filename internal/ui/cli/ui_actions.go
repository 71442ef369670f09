package cli

import (
	"context"
	"errors"

	coreapp "repolens/internal/core/app"
	"repolens/internal/core/ports"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.mode == panelHistory && m.historyList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelHistory {
			m.mode = panelTree
		} else {
			m.mode = panelHistory
		}
		return m, nil
	case "c":
		return m, clearHistoryCmd(m.app)
	case "r":
		if len(m.files) == 0 {
			m.status = statusStyle.Render("Nothing to reload: start with `repolens -ui ingest <file>`")
			return m, nil
		}
		return m, reloadCmd(m.app, m.files)
	}

	var cmd tea.Cmd
	if m.mode == panelHistory {
		m.historyList, cmd = m.historyList.Update(msg)
	} else {
		m.tree, cmd = m.tree.Update(msg)
	}
	return m, cmd
}

func clearHistoryCmd(app *coreapp.App) tea.Cmd {
	return func() tea.Msg {
		return historyClearedMsg{err: app.AnalysisService().ClearHistory(context.Background())}
	}
}

// reloadCmd ingests every file and reports the last successful result.
func reloadCmd(app *coreapp.App, files []string) tea.Cmd {
	return func() tea.Msg {
		return ingestFiles(context.Background(), app, files)
	}
}

func ingestFiles(ctx context.Context, app *coreapp.App, files []string) updateMsg {
	var (
		last   ports.IngestResult
		source string
		errs   []error
	)
	for _, path := range files {
		result, err := app.IngestFile(ctx, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		last, source = result, path
	}

	msg := updateMsg{
		source:  source,
		result:  last,
		entries: app.AnalysisService().History(ctx),
	}
	if source == "" {
		msg.err = errors.Join(errs...)
	}
	return msg
}
