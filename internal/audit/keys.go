package audit

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the audit screens use. Each screen shows the
// subset that applies to it.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Switch   key.Binding
	Select   key.Binding
	Back     key.Binding
	Open     key.Binding
	ReadDesc key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Switch: key.NewBinding(
		key.WithKeys("tab", "left", "right"),
		key.WithHelp("←/→/tab", "switch pane"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace", "b"),
		key.WithHelp("esc", "back"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open url"),
	),
	ReadDesc: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "description"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// bindings adapts a fixed list of bindings to help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

var (
	pickerHelp = bindings{keys.Up, keys.Down, keys.Select, keys.Quit}
	listHelp   = bindings{keys.Switch, keys.Up, keys.Down, keys.Select, keys.Back, keys.Quit}
	detailHelp = bindings{keys.Open, keys.ReadDesc, keys.Up, keys.Down, keys.Back, keys.Quit}
)
