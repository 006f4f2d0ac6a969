package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flavorlab/internal/ui/theme"
)

// PaletteSubmitMsg carries a confirmed command line.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is sent when the palette is dismissed with esc.
type PaletteCancelMsg struct{}

type command struct {
	usage string
	about string
}

// Keep in step with executePalette in app/model.go.
var commands = []command{
	{usage: "search <query>", about: "reveal the best match"},
	{usage: "select <id>", about: "reveal by node id"},
	{usage: "pairings <ingredient>", about: "show top partners"},
	{usage: "reset", about: "clear canvas and trail"},
	{usage: "quit", about: "leave flavorlab"},
}

const historySize = 20

var (
	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	usageStyle = lipgloss.NewStyle().Foreground(theme.Lavender)
	aboutStyle = lipgloss.NewStyle().Foreground(theme.Subtext0).Italic(true)
)

// Palette is the ":" command line. It completes command words with tab and
// recalls earlier commands with up and down.
type Palette struct {
	input   textinput.Model
	open    bool
	width   int
	history []string
	recall  int
}

func NewPalette() Palette {
	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "search basil"
	in.CharLimit = 128
	return Palette{input: in}
}

func (p Palette) Visible() bool { return p.open }

func (p *Palette) Open() tea.Cmd {
	p.open = true
	p.recall = len(p.history)
	p.input.Reset()
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// History lists submitted commands, oldest first.
func (p Palette) History() []string { return append([]string(nil), p.history...) }

// Value is the current command line.
func (p Palette) Value() string { return p.input.Value() }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.open {
		return p, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEsc:
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case tea.KeyEnter:
			line := strings.TrimSpace(p.input.Value())
			p.close()
			p.remember(line)
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: line} }
		case tea.KeyTab:
			p.complete()
			return p, nil
		case tea.KeyUp:
			p.step(-1)
			return p, nil
		case tea.KeyDown:
			p.step(1)
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.open {
		return ""
	}
	lines := []string{theme.Title.Render("Command"), p.input.View(), ""}
	matches := matching(p.input.Value())
	if len(matches) == 0 {
		lines = append(lines, aboutStyle.Render("no such command"))
	}
	for _, c := range matches {
		lines = append(lines, usageStyle.Render(c.usage)+"  "+aboutStyle.Render(c.about))
	}
	w := p.width
	if w < 24 {
		w = 60
	}
	return boxStyle.Width(w - 2).Render(strings.Join(lines, "\n"))
}

// MatchHints returns the usage lines of commands the input could be heading
// for. Once an argument follows, only the exact command word matches.
func MatchHints(input string) []string {
	matches := matching(input)
	out := make([]string, len(matches))
	for i, c := range matches {
		out[i] = c.usage
	}
	return out
}

func matching(input string) []command {
	word, rest, _ := strings.Cut(strings.TrimLeft(strings.ToLower(input), " "), " ")
	if word == "" {
		return commands
	}
	var out []command
	for _, c := range commands {
		name, _, _ := strings.Cut(c.usage, " ")
		if name == word || (strings.TrimSpace(rest) == "" && strings.HasPrefix(name, word)) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Palette) close() {
	p.open = false
	p.input.Blur()
}

func (p *Palette) remember(line string) {
	if line == "" || (len(p.history) > 0 && p.history[len(p.history)-1] == line) {
		return
	}
	p.history = append(p.history, line)
	if len(p.history) > historySize {
		p.history = p.history[len(p.history)-historySize:]
	}
}

// complete fills in the first matching command word when the input is still
// a bare prefix.
func (p *Palette) complete() {
	value := p.input.Value()
	if strings.Contains(strings.TrimLeft(value, " "), " ") {
		return
	}
	matches := matching(value)
	if len(matches) == 0 {
		return
	}
	name, _, _ := strings.Cut(matches[0].usage, " ")
	p.input.SetValue(name + " ")
	p.input.CursorEnd()
}

func (p *Palette) step(delta int) {
	if len(p.history) == 0 {
		return
	}
	p.recall = max(0, min(len(p.history), p.recall+delta))
	if p.recall == len(p.history) {
		p.input.SetValue("")
		return
	}
	p.input.SetValue(p.history[p.recall])
	p.input.CursorEnd()
}
