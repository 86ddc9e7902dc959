package audit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/stackradar/internal/config"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerRowStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerProviderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	pickerFooterStyle = lipgloss.NewStyle().
				Padding(1, 0, 0, 2)
)

type pickerModel struct {
	seeds    []config.SeedConfig
	nameCol  int
	cursor   int
	selected int
	quit     bool
	help     help.Model
}

func newPickerModel(seeds []config.SeedConfig) pickerModel {
	nameCol := 0
	for _, s := range seeds {
		nameCol = max(nameCol, len(s.Name))
	}
	return pickerModel{seeds: seeds, nameCol: nameCol, selected: -1, help: help.New()}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, keys.Quit):
		m.quit = true
		return m, tea.Quit
	case key.Matches(keyMsg, keys.Up):
		m.cursor = clamp(m.cursor-1, 0, max(len(m.seeds)-1, 0))
	case key.Matches(keyMsg, keys.Down):
		m.cursor = clamp(m.cursor+1, 0, max(len(m.seeds)-1, 0))
	case key.Matches(keyMsg, keys.Select):
		if len(m.seeds) > 0 {
			m.selected = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(fmt.Sprintf("Screening audit: %d hubs", len(m.seeds))))
	b.WriteByte('\n')

	for i, s := range m.seeds {
		row := fmt.Sprintf("%-*s  %s", m.nameCol, s.Name, pickerProviderStyle.Render(s.Provider+" · "+s.Hub))
		if i == m.cursor {
			b.WriteString(pickerCursorStyle.Render("> " + row))
		} else {
			b.WriteString(pickerRowStyle.Render(row))
		}
		b.WriteByte('\n')
	}

	b.WriteString(pickerFooterStyle.Render(m.help.View(pickerHelp)))
	return b.String()
}

// RunHubPicker lets the operator choose one of seeds. It returns the chosen
// index, or -1 when the operator quit.
func RunHubPicker(seeds []config.SeedConfig) (int, error) {
	final, err := tea.NewProgram(newPickerModel(seeds)).Run()
	if err != nil {
		return -1, err
	}
	m := final.(pickerModel)
	if m.quit {
		return -1, nil
	}
	return m.selected, nil
}
