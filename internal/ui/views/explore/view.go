package explore

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	exploredto "flavorlab/internal/modules/explore/dto"
	graphdto "flavorlab/internal/modules/graph/dto"
	"flavorlab/internal/ui/theme"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type ExplorePort interface {
	Candidates(ctx context.Context, query string) ([]exploredto.CandidateOutput, error)
	Select(ctx context.Context, id string) error
	Reset(ctx context.Context) error
	State(ctx context.Context) (exploredto.StateOutput, error)
}

// PairingsPort is optional; without it the detail pane stays empty.
type PairingsPort interface {
	Pairings(ctx context.Context, key string) (graphdto.PairingsOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type CandidatesMsg struct {
	Query string
	Items []exploredto.CandidateOutput
	Err   error
}

type SelectedMsg struct {
	ID   string
	Name string
	Err  error
}

type StateMsg struct {
	State exploredto.StateOutput
	Err   error
}

type PairingsMsg struct {
	Out graphdto.PairingsOutput
	Err error
}

type ResetMsg struct{ Err error }

// ─── list item ───────────────────────────────────────────────────────────────

type candidateItem struct {
	c exploredto.CandidateOutput
}

func (i candidateItem) Title() string { return i.c.Name }
func (i candidateItem) Description() string {
	if i.c.Category == "" {
		return i.c.ID
	}
	return i.c.ID + " · " + i.c.Category
}
func (i candidateItem) FilterValue() string { return i.c.Name }

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the exploration screen: a search box feeding live candidates, the
// canvas of revealed ingredients and the trail of selections.
type Model struct {
	port     ExplorePort
	pairings PairingsPort

	input   textinput.Model
	list    list.Model
	detail  viewport.Model
	canvas  Canvas
	trail   []string
	names   map[string]string
	focus   string
	lastErr error
	width   int
	height  int
}

func New(port ExplorePort, pairings PairingsPort) Model {
	ti := textinput.New()
	ti.Placeholder = "search ingredients…"
	ti.Prompt = "› "
	ti.CharLimit = 64
	ti.Focus()

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Green).BorderForeground(theme.Green)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Green)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Candidates"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(0, 1)

	return Model{
		port:     port,
		pairings: pairings,
		input:    ti,
		list:     l,
		detail:   vp,
		canvas:   NewCanvas(),
		names:    make(map[string]string),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.stateCmd())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case RenderMsg:
		if msg.op == opAddNode {
			m.names[msg.id] = msg.label
		}
		m.canvas.Apply(msg)
		return m, nil

	case CandidatesMsg:
		if msg.Query != m.input.Value() {
			return m, nil
		}
		m.lastErr = msg.Err
		items := make([]list.Item, len(msg.Items))
		for i, c := range msg.Items {
			items[i] = candidateItem{c: c}
		}
		return m, m.list.SetItems(items)

	case SelectedMsg:
		m.lastErr = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.focus = msg.Name
		if name, ok := m.names[msg.ID]; ok {
			m.focus = name
		}
		m.input.SetValue("")
		cmds = append(cmds, m.list.SetItems(nil), m.stateCmd(), m.pairingsCmd(msg.ID))
		return m, tea.Batch(cmds...)

	case ResetMsg:
		m.lastErr = msg.Err
		m.focus = ""
		m.detail.SetContent("")
		return m, m.stateCmd()

	case StateMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		m.trail = msg.State.TrailDisplay
		return m, nil

	case PairingsMsg:
		if msg.Err != nil {
			m.detail.SetContent(theme.Muted.Render(msg.Err.Error()))
			return m, nil
		}
		m.detail.SetContent(renderPairings(msg.Out))
		m.detail.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "down", "ctrl+p", "ctrl+n":
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(normalizeNav(msg))
			return m, cmd
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		case "enter":
			if item, ok := m.list.SelectedItem().(candidateItem); ok {
				return m, m.SelectCmd(item.c.ID, item.c.Name)
			}
			return m, nil
		case "ctrl+r":
			return m, m.ResetCmd()
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		if m.input.Value() != before {
			cmds = append(cmds, m.candidatesCmd(m.input.Value()))
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	leftW := m.width * 35 / 100
	rightW := m.width - leftW

	search := m.input.View()
	if m.lastErr != nil {
		search += "\n" + theme.Hot.Render(m.lastErr.Error())
	}
	left := lipgloss.JoinVertical(lipgloss.Left,
		search,
		"",
		m.list.View(),
	)
	leftPane := lipgloss.NewStyle().Width(leftW).Height(m.height).Render(left)

	canvasH := m.height * 60 / 100
	canvasPane := theme.Canvas.
		Width(rightW - 2).
		Height(max(canvasH-2, 1)).
		Render(theme.Title.Render("Canvas") + "\n" + m.canvas.View(rightW-6))

	labels := make([]string, len(m.trail))
	for i, id := range m.trail {
		labels[i] = id
		if name, ok := m.names[id]; ok {
			labels[i] = name
		}
	}
	trail := theme.Muted.Render("trail: ") + strings.Join(labels, theme.Muted.Render(" → "))
	if len(m.trail) == 0 {
		trail = theme.Muted.Render("trail: (empty)")
	}
	detailPane := theme.Detail.
		Width(rightW - 2).
		Render(m.detail.View())

	right := lipgloss.JoinVertical(lipgloss.Left, canvasPane, trail, detailPane)
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, right)
}

// Canvas exposes the drawn state, mainly for status lines.
func (m Model) Canvas() Canvas { return m.canvas }

// Query is the current content of the search box.
func (m Model) Query() string { return m.input.Value() }

// Focus is the name of the last selected ingredient.
func (m Model) Focus() string { return m.focus }

// ─── commands ────────────────────────────────────────────────────────────────

func (m Model) SelectCmd(id, name string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return SelectedMsg{ID: id, Name: name}
		}
		err := m.port.Select(context.Background(), id)
		return SelectedMsg{ID: id, Name: name, Err: err}
	}
}

func (m Model) ResetCmd() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return ResetMsg{}
		}
		return ResetMsg{Err: m.port.Reset(context.Background())}
	}
}

// SearchCmd picks the best candidate for query and selects it.
func (m Model) SearchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return SelectedMsg{Err: fmt.Errorf("no explorer")}
		}
		items, err := m.port.Candidates(context.Background(), query)
		if err != nil {
			return SelectedMsg{Err: err}
		}
		if len(items) == 0 {
			return SelectedMsg{Err: fmt.Errorf("no ingredient matches %q", query)}
		}
		best := items[0]
		err = m.port.Select(context.Background(), best.ID)
		return SelectedMsg{ID: best.ID, Name: best.Name, Err: err}
	}
}

func (m Model) candidatesCmd(query string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return CandidatesMsg{Query: query}
		}
		items, err := m.port.Candidates(context.Background(), query)
		return CandidatesMsg{Query: query, Items: items, Err: err}
	}
}

func (m Model) stateCmd() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return StateMsg{}
		}
		state, err := m.port.State(context.Background())
		return StateMsg{State: state, Err: err}
	}
}

func (m Model) pairingsCmd(id string) tea.Cmd {
	if m.pairings == nil {
		return nil
	}
	return func() tea.Msg {
		out, err := m.pairings.Pairings(context.Background(), id)
		return PairingsMsg{Out: out, Err: err}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	leftW := m.width * 35 / 100
	rightW := m.width - leftW
	m.input.Width = leftW - 4
	m.list.SetSize(leftW, max(m.height-3, 1))
	m.detail.Width = rightW - 4
	m.detail.Height = max(m.height-m.height*60/100-4, 1)
}

func normalizeNav(msg tea.KeyMsg) tea.KeyMsg {
	switch msg.String() {
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return msg
}

func renderPairings(out graphdto.PairingsOutput) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Top pairings: "+out.Ingredient.Name) + "\n")
	if len(out.Pairings) == 0 {
		sb.WriteString(theme.Muted.Render("no partners"))
		return sb.String()
	}
	for i, p := range out.Pairings {
		sb.WriteString(fmt.Sprintf(" %d. %s  %s\n", i+1, p.Ingredient.Name, theme.Muted.Render(fmt.Sprintf("%.3f", p.Score))))
	}
	return strings.TrimRight(sb.String(), "\n")
}
