// Package tui is a small terminal viewer for the daemon's status API.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusUpdateMsg is sent when a status poll completes
type StatusUpdateMsg struct {
	Status *DaemonStatus
	Err    error
}

// TickMsg triggers the next status poll
type TickMsg struct {
	Time time.Time
}

// Model holds the viewer state (thin client, all data comes from the daemon)
type Model struct {
	Client *StatusClient

	Status    *DaemonStatus
	LastErr   error
	FetchedAt time.Time
}

// NewModel creates a viewer model for the given daemon base URL
func NewModel(baseURL string) Model {
	return Model{Client: NewStatusClient(baseURL)}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return pollStatus(m.Client)
}

// pollStatus creates a command to fetch daemon status
func pollStatus(client *StatusClient) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{Status: status, Err: err}
	}
}

// tickCmd schedules the next poll
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
