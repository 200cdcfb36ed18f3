package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/leveling"
)

const xpBarWidth = 20

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAddHabit:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = docStyle.Render(m.today.View())
	}

	var status string
	switch {
	case m.err != nil:
		status = dangerStyle.Render(m.err.Error())
	case m.status != "":
		status = warningStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		status,
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	title := titleStyle.Render("habitual · " + m.user.Username)
	level := levelStyle.Render(fmt.Sprintf("Level %d  %s  %d/%d XP",
		m.user.Level, xpBar(m.user.XP, leveling.ThresholdFor(m.user.Level)), m.user.XP, leveling.ThresholdFor(m.user.Level)))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, level)
}

// xpBar renders xp out of threshold as a fixed-width bar.
func xpBar(xp, threshold int) string {
	filled := 0
	if threshold > 0 {
		filled = min(xp*xpBarWidth/threshold, xpBarWidth)
	}
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", xpBarWidth-filled))
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, max(m.height-4, 0),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q and its whole history?", m.habitToDelete.Title)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
