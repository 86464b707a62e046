package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"newsbrief/types"
)

// Lang selects which half of bilingual fields is shown.
type Lang string

const (
	LangEN Lang = "en"
	LangZH Lang = "zh"
)

// Model is the viewer state. It only mirrors what the server reports.
type Model struct {
	Client    *Client
	CanAuth   bool
	Session   string
	Items     []types.BriefingItem
	Debug     *DebugSnapshot
	Cursor    int
	Lang      Lang
	Notice    string
	Err       error
	Connected bool
	Width     int
}

// NewModel creates a viewer for baseURL. An empty secret disables triggering.
func NewModel(baseURL, secret, session string) Model {
	return Model{
		Client:  NewClient(baseURL, secret),
		CanAuth: secret != "",
		Session: session,
		Lang:    LangEN,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollSnapshot(m.Client), tickCmd())
}

func (m Model) text(b types.Bilingual) string {
	if m.Lang == LangZH && b.ZH != "" {
		return b.ZH
	}
	if b.EN != "" {
		return b.EN
	}
	return b.ZH
}

func (m Model) selected() (types.BriefingItem, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Items) {
		return types.BriefingItem{}, false
	}
	return m.Items[m.Cursor], true
}
