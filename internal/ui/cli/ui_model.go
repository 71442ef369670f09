package cli

import (
	"fmt"
	"strings"
	"time"

	coreapp "repolens/internal/core/app"
	"repolens/internal/core/ports"
	"repolens/internal/data/history"
	"repolens/internal/engine/deptree"
	"repolens/internal/output"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	truncatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	treeFrameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelHistory panelMode = iota
	panelTree
)

type model struct {
	historyList list.Model
	tree        viewport.Model
	mode        panelMode

	app   *coreapp.App
	files []string

	entries     []history.Entry
	source      string
	treeContent string
	stats       deptree.Stats
	status      string
	lastUpdate  time.Time
}

type updateMsg struct {
	source  string
	result  ports.IngestResult
	entries []history.Entry
	err     error
}

type historyClearedMsg struct {
	err error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.historyList.SetSize(width, height)
		fh, fv := treeFrameStyle.GetFrameSize()
		m.tree.Width = width - fh
		m.tree.Height = height - fv
		return m, nil
	case updateMsg:
		m.lastUpdate = time.Now()
		m.setEntries(msg.entries)
		if msg.err != nil {
			m.status = cycleStyle.Render(fmt.Sprintf("Reload failed: %v", msg.err))
			return m, nil
		}
		if msg.source == "" {
			return m, nil
		}
		m.source = msg.source
		m.stats = msg.result.Stats
		m.setTree(msg.result)
		m.status = statusStyle.Render(fmt.Sprintf("Loaded %s", msg.source))
		return m, nil
	case historyClearedMsg:
		if msg.err != nil {
			m.status = cycleStyle.Render(fmt.Sprintf("Clear failed: %v", msg.err))
			return m, nil
		}
		m.setEntries(nil)
		m.status = statusStyle.Render("History cleared")
		return m, nil
	}

	var cmd tea.Cmd
	if m.mode == panelHistory {
		m.historyList, cmd = m.historyList.Update(msg)
	} else {
		m.tree, cmd = m.tree.Update(msg)
	}
	return m, cmd
}

func (m *model) setEntries(entries []history.Entry) {
	m.entries = entries
	items := make([]list.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, item{
			title: entry.Key,
			desc: fmt.Sprintf("%s | %s | %s",
				entry.Kind.Label(),
				entry.Time().Format("2006-01-02 15:04"),
				output.FormatMetadata(entry.Metadata),
			),
		})
	}
	m.historyList.SetItems(items)
}

func (m *model) setTree(result ports.IngestResult) {
	if result.Entry.Kind == history.KindProfile {
		m.treeContent = "Profile analyses carry no dependency graph."
		m.tree.SetContent(m.treeContent)
		return
	}

	text, err := output.NewTextGenerator(result.Forest).Generate()
	if err != nil {
		text = err.Error()
	}
	m.treeContent = text

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasSuffix(line, "[cycle]"):
			lines[i] = cycleStyle.Render(line)
		case strings.HasSuffix(line, "[depth limit]"):
			lines[i] = truncatedStyle.Render(line)
		}
	}
	m.tree.SetContent(strings.Join(lines, "\n"))
	m.tree.GotoTop()
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d history entries",
		m.lastUpdate.Format("15:04:05"), len(m.entries)))

	var summary string
	switch {
	case m.source == "":
		summary = statusStyle.Render("No analysis loaded")
	case m.stats.Cycles == 0:
		summary = successStyle.Render(fmt.Sprintf("%d roots, no cycles", m.stats.Roots))
	default:
		summary = cycleStyle.Render(fmt.Sprintf("%d roots, %d cycle markers", m.stats.Roots, m.stats.Cycles))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Repository Lens"), status, summary)
	help := renderHelp(m)

	body := m.historyList.View()
	if m.mode == panelTree {
		body = treeFrameStyle.Render(m.tree.View())
	}
	if m.status != "" {
		body += "\n\n" + m.status
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func renderHelp(m model) string {
	panel := "history"
	if m.mode == panelTree {
		panel = "tree"
	}
	return statusStyle.Render(fmt.Sprintf("[%s] tab: switch panel | r: reload | c: clear history | q: quit", panel))
}

func initialModel(app *coreapp.App, files []string) model {
	historyList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	historyList.Title = "Recent Analyses"
	historyList.SetShowStatusBar(false)
	historyList.SetFilteringEnabled(true)

	tree := viewport.New(80, 20)
	tree.SetContent(output.EmptyMessage)

	return model{
		historyList: historyList,
		tree:        tree,
		mode:        panelHistory,
		app:         app,
		files:       files,
		treeContent: output.EmptyMessage,
		lastUpdate:  time.Now(),
	}
}
