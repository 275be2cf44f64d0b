package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlit/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case constants.StateHabits:
		content = docStyle.Render(m.habitsModel.View())
	case constants.StateStats:
		content = docStyle.Render(m.statsModel.View())
	case constants.StateHistory:
		content = docStyle.Render(m.historyModel.View())
	case constants.StateAddHabit:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDeactivate:
		content = m.viewConfirm(
			fmt.Sprintf("Stop tracking %q?", m.pendingTitle),
			"Its history is kept and it stays visible in stats.",
		)
	case constants.StateConfirmDelete:
		content = m.viewConfirm(
			fmt.Sprintf("Delete %q and all of its history?", m.pendingTitle),
			"This cannot be undone.",
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var rendered []string
	for _, t := range tabs {
		if m.state == t.state {
			rendered = append(rendered, activeTabStyle.Render(t.title))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(t.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return warningStyle.Render("⚠ " + m.errMsg)
	case m.status != "":
		return statusStyle.Render(m.status)
	default:
		return ""
	}
}

func (m Model) viewConfirm(question, detail string) string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(question),
			detail,
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
