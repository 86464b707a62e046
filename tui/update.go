package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil
	case TickMsg:
		return m, tea.Batch(pollSnapshot(m.Client), tickCmd())
	case SnapshotMsg:
		return m.handleSnapshot(msg), nil
	case TriggerMsg:
		return m.handleTrigger(msg), nil
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Items)-1 {
			m.Cursor++
		}
	case "l":
		if m.Lang == LangEN {
			m.Lang = LangZH
		} else {
			m.Lang = LangEN
		}
	case "t", "T":
		if !m.CanAuth {
			m.Notice = "no credential supplied"
			return m, nil
		}
		m.Notice = "triggering job..."
		return m, triggerJob(m.Client, m.Session)
	}
	return m, nil
}

func (m Model) handleSnapshot(msg SnapshotMsg) Model {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m
	}
	m.Connected = true
	m.Err = nil
	m.Items = msg.Items
	m.Debug = msg.Debug
	if m.Cursor >= len(m.Items) {
		m.Cursor = max(len(m.Items)-1, 0)
	}
	return m
}

func (m Model) handleTrigger(msg TriggerMsg) Model {
	if msg.Err != nil {
		m.Notice = fmt.Sprintf("trigger failed: %v", msg.Err)
		return m
	}
	m.Notice = "job " + msg.Status
	return m
}
