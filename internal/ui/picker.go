package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

// pickerModel is a minimal list selector over the live car registry.
type pickerModel struct {
	entries  []protocol.RegistryEntry
	cursor   int
	chosen   int
	quitting bool
}

func (m *pickerModel) Init() tea.Cmd {
	return nil
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.chosen = -1
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "enter":
			m.quitting = true
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *pickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(IconCar + " Select a car") + "\n\n")

	for i, entry := range m.entries {
		cursor := "  "
		line := fmt.Sprintf("%s  %s", entry.RoomCode, MutedStyle.Render(entry.SocketID))
		if i == m.cursor {
			cursor = BoldStyle.Foreground(Primary).Render("> ")
			line = BoldStyle.Render(entry.RoomCode) + "  " + MutedStyle.Render(entry.SocketID)
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n" + MutedStyle.Render("↑/↓ to move, enter to drive, q to quit"))
	return b.String()
}

// PickCar runs an interactive selector and returns the chosen entry.
// ok is false if the user cancelled.
func PickCar(entries []protocol.RegistryEntry) (protocol.RegistryEntry, bool, error) {
	if len(entries) == 0 {
		return protocol.RegistryEntry{}, false, nil
	}

	model := &pickerModel{entries: entries, chosen: -1}
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return protocol.RegistryEntry{}, false, err
	}
	if model.chosen < 0 {
		return protocol.RegistryEntry{}, false, nil
	}
	return entries[model.chosen], true, nil
}
