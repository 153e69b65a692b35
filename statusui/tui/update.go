package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, pollStatus(m.Client)
		}
	case StatusUpdateMsg:
		if msg.Err != nil {
			m.LastErr = msg.Err
		} else {
			m.LastErr = nil
			m.Status = msg.Status
			m.FetchedAt = time.Now()
		}
		return m, tickCmd()
	case TickMsg:
		return m, pollStatus(m.Client)
	}
	return m, nil
}
