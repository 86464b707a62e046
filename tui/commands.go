package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PollInterval is how often the viewer refreshes.
const PollInterval = 2 * time.Second

func pollSnapshot(client *Client) tea.Cmd {
	return func() tea.Msg {
		items, err := client.Latest()
		if err != nil {
			return SnapshotMsg{Err: err}
		}
		snap, err := client.Debug()
		return SnapshotMsg{Items: items, Debug: snap, Err: err}
	}
}

func triggerJob(client *Client, session string) tea.Cmd {
	return func() tea.Msg {
		status, err := client.Trigger(session)
		return TriggerMsg{Status: status, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
