package audit

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// Choice is one entry in the source picker.
type Choice struct {
	Name string
	Kind string // greenhouse, lever, rss, file; empty for the "all sources" entry
}

func (c Choice) label() string {
	if c.Kind == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Kind)
}

const (
	pickerPending = -1
	pickerQuit    = -2
)

type pickerModel struct {
	choices []Choice
	cursor  int
	chosen  int
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.chosen = pickerQuit
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.choices)-1, 0)
	case "enter":
		if len(m.choices) > 0 {
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Filter Audit · Select a source"))
	b.WriteByte('\n')

	for i, c := range m.choices {
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> " + c.label()))
		} else {
			b.WriteString(pickerItemStyle.Render(c.label()))
		}
		b.WriteByte('\n')
	}

	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

// RunSourcePicker shows an interactive source selector.
// Returns the index of the chosen entry, or -1 if the user quit.
func RunSourcePicker(choices []Choice) (int, error) {
	p := tea.NewProgram(pickerModel{choices: choices, chosen: pickerPending})
	result, err := p.Run()
	if err != nil {
		return -1, err
	}
	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
