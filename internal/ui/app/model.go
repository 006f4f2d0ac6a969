package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	graphdto "flavorlab/internal/modules/graph/dto"
	"flavorlab/internal/ui/components"
	"flavorlab/internal/ui/theme"
	exploreview "flavorlab/internal/ui/views/explore"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type statsPort interface {
	Stats(ctx context.Context) (graphdto.StatsOutput, error)
}

// GraphPort is what the root model needs from the graph module.
type GraphPort interface {
	statsPort
	exploreview.PairingsPort
}

// ─── async messages ──────────────────────────────────────────────────────────

type statsLoadedMsg struct {
	stats graphdto.StatsOutput
	err   error
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Select  key.Binding
	Move    key.Binding
	Reset   key.Binding
	Detail  key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "reveal ingredient")),
		Move:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "candidate")),
		Reset:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Detail:  key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll pairings")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.Move, k.Detail},
		{k.Reset, k.Palette},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns the help overlay, the command
// palette and the status bar; exploration itself lives in the explore view.
// Printable keys belong to the search box, so "?" and ":" only act while it
// is empty.
type Model struct {
	graph GraphPort

	explore exploreview.Model

	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	stats    graphdto.StatsOutput
	status   string
	width    int
	height   int
}

func NewModel(explore exploreview.ExplorePort, graph GraphPort) Model {
	var pairings exploreview.PairingsPort
	if graph != nil {
		pairings = graph
	}
	return Model{
		graph:   graph,
		explore: exploreview.New(explore, pairings),
		keys:    defaultKeys(),
		help:    help.New(),
		palette: components.NewPalette(),
		status:  "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.explore.Init(), m.loadStatsCmd())
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Render commands must reach the canvas even while an overlay is open.
	if rm, ok := msg.(exploreview.RenderMsg); ok {
		var cmd tea.Cmd
		m.explore, cmd = m.explore.Update(rm)
		return m, cmd
	}

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case statsLoadedMsg:
		if msg.err != nil {
			m.status = "stats: " + msg.err.Error()
		} else {
			m.stats = msg.stats
		}
		return m, nil

	case exploreview.SelectedMsg:
		if msg.Err != nil {
			m.status = "select: " + msg.Err.Error()
		} else {
			m.status = "revealed " + msg.Name
		}

	case exploreview.ResetMsg:
		if msg.Err != nil {
			m.status = "reset: " + msg.Err.Error()
		} else {
			m.status = "canvas cleared"
		}

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help) && m.searchEmpty():
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Palette) && m.searchEmpty():
			return m, m.palette.Open()
		}
	}

	var cmd tea.Cmd
	m.explore, cmd = m.explore.Update(msg)
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.explore.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) renderHeader() string {
	title := theme.Hot.Render(" flavorlab ")
	info := theme.Muted.Render(fmt.Sprintf("%d ingredients · k=%d", m.stats.Ingredients, m.stats.K))
	if focus := m.explore.Focus(); focus != "" {
		info += theme.Muted.Render(" · focus ") + theme.Title.Render(focus)
	}
	bar := title + " " + info
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if n := m.explore.Canvas().Len(); n > 0 {
		left = theme.Hot.Render(fmt.Sprintf("● %d on canvas", n)) + "  " + left
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return m, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), fields[0]))

	switch strings.ToLower(fields[0]) {
	case "search":
		if arg == "" {
			m.status = "usage: search <query>"
			return m, nil
		}
		m.status = "searching " + arg
		return m, m.explore.SearchCmd(arg)
	case "select":
		if arg == "" {
			m.status = "usage: select <id>"
			return m, nil
		}
		return m, m.explore.SelectCmd(arg, arg)
	case "pairings":
		if arg == "" || m.graph == nil {
			m.status = "usage: pairings <ingredient>"
			return m, nil
		}
		graph := m.graph
		return m, func() tea.Msg {
			out, err := graph.Pairings(context.Background(), arg)
			return exploreview.PairingsMsg{Out: out, Err: err}
		}
	case "reset":
		return m, m.explore.ResetCmd()
	case "quit", "q":
		return m, tea.Quit
	}
	m.status = "unknown command: " + fields[0]
	return m, nil
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	contentH := m.height - 4
	if contentH < 1 {
		contentH = 1
	}
	m.explore, _ = m.explore.Update(tea.WindowSizeMsg{Width: m.width, Height: contentH})
}

func (m Model) searchEmpty() bool {
	return m.explore.Query() == ""
}

func (m Model) loadStatsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.graph == nil {
			return statsLoadedMsg{}
		}
		stats, err := m.graph.Stats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}
