package tui

import (
	"fmt"
	"strings"

	"newsbrief/rssfeeds"
	stypes "newsbrief/shared/types"
)

const maxListed = 15

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("AI News Briefing"))
	b.WriteString("\n")

	if !m.Connected {
		msg := "Not connected"
		if m.Err != nil {
			msg += ": " + m.Err.Error()
		}
		b.WriteString(ErrorStyle.Render(msg))
		b.WriteString("\n\n")
	} else if m.Debug != nil {
		b.WriteString(m.pipelineLine())
		b.WriteString("\n\n")
	}

	if len(m.Items) == 0 {
		b.WriteString(InfoStyle.Render(TextNoItems))
		b.WriteString("\n")
	}
	start := 0
	if m.Cursor >= maxListed {
		start = m.Cursor - maxListed + 1
	}
	for i := start; i < len(m.Items) && i < start+maxListed; i++ {
		it := m.Items[i]
		score := scoreStyle(it.ImpactScore).Render(fmt.Sprintf("%2d", it.ImpactScore))
		line := fmt.Sprintf("%-13s %s", it.Category, rssfeeds.Truncate(m.text(it.Title), 80))
		if i == m.Cursor {
			b.WriteString(score + " " + HighlightStyle.Render(line))
		} else {
			b.WriteString(score + " " + InfoStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if it, ok := m.selected(); ok {
		var detail strings.Builder
		detail.WriteString(m.text(it.Title))
		detail.WriteString("\n\n")
		detail.WriteString(m.text(it.Summary))
		detail.WriteString("\n\n")
		detail.WriteString(fmt.Sprintf("%s  %s", it.Source, it.URL))
		if len(it.Tags) > 0 {
			detail.WriteString("\n#" + strings.Join(it.Tags, " #"))
		}
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(detail.String()))
		b.WriteString("\n")
	}

	if m.Debug != nil && len(m.Debug.Jobs) > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Recent jobs:"))
		b.WriteString("\n")
		for _, j := range m.Debug.Jobs {
			b.WriteString(jobLine(j.Label, j.Finished, j.Success, j.Error))
			b.WriteString("\n")
		}
	}

	if m.Notice != "" {
		b.WriteString("\n")
		b.WriteString(StatusStyle.Render(m.Notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.CanAuth {
		b.WriteString(InfoStyle.Render(TextFooter))
	} else {
		b.WriteString(InfoStyle.Render(TextFooterNoAuth))
	}
	return b.String()
}

func (m Model) pipelineLine() string {
	p := m.Debug.Pipeline
	line := fmt.Sprintf("state %s | session %s | items %d | up %s", p.State, p.SessionKey, p.LastItems, m.Debug.Uptime)
	switch {
	case p.State == stypes.StateFailed:
		return ErrorStyle.Render(line + " | " + p.LastError)
	case p.Running:
		return StatusStyle.Render(line + " | running")
	default:
		return InfoStyle.Render(line)
	}
}

func jobLine(label string, finished bool, success *bool, errMsg string) string {
	switch {
	case !finished:
		return StatusStyle.Render("  … " + label)
	case success != nil && *success:
		return StatusStyle.Render("  ✓ " + label)
	default:
		return ErrorStyle.Render("  ✗ " + label + " " + errMsg)
	}
}
