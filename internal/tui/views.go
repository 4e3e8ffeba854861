package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case StateLoading:
		body = m.renderLoading()
	case StateTagging, StateSubmitting:
		body = m.renderTagModal()
	default:
		body = m.renderList()
	}

	sections := []string{m.theme.Title.Render("📒 SMS Ledger"), body}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, "", status)
	}
	if m.config.ShowHelp {
		sections = append(sections, "", m.renderHelp())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	return m.spinner.View() + " " + m.theme.Subtitle.Render("Reading inbox...")
}

func (m Model) renderList() string {
	if m.state == StateBlocked {
		return m.theme.Subtitle.Render("Press r to try again.")
	}
	if len(m.candidates) == 0 {
		return m.theme.Subtitle.Render("No transactions to reconcile.")
	}

	rows := make([]string, 0, len(m.candidates))
	for i, c := range m.candidates {
		line := fmt.Sprintf("%-18s %-16s %s", m.amount(c), c.Address, m.statusLabel(c.Status))
		if i == m.cursor {
			line = m.theme.Selected.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}

	header := m.theme.Subtitle.Render(fmt.Sprintf("%d transaction(s) awaiting review", len(m.candidates)))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", strings.Join(rows, "\n"))
}

func (m Model) renderTagModal() string {
	c := m.active
	width := m.width - 4
	if width < 30 {
		width = 30
	}

	content := []string{
		m.amount(c) + "  " + m.theme.Subtitle.Render(c.Address),
		"",
		m.theme.Normal.Width(width - 6).Render(c.Body),
		"",
	}
	if m.state == StateSubmitting {
		content = append(content, m.spinner.View()+" Sending to ledger...")
	} else {
		content = append(content, m.input.View())
	}
	return m.theme.RoundedBox.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func (m Model) renderStatus() string {
	switch m.statusKind {
	case statusSuccess:
		return m.theme.StatusSuccess.Render("✓ " + m.status)
	case statusWarning:
		return m.theme.StatusWarning.Render("⚠ " + m.status)
	case statusError:
		return m.theme.StatusError.Render("✗ " + m.status)
	default:
		return ""
	}
}

func (m Model) renderHelp() string {
	if m.state == StateTagging {
		return m.help.View(tagKeyMap{m.keymap})
	}
	return m.help.View(m.keymap)
}

func (m Model) amount(c model.Candidate) string {
	if c.Type == model.Debit {
		return m.theme.Debit.Render("- INR " + c.Amount)
	}
	return m.theme.Credit.Render("+ INR " + c.Amount)
}

func (m Model) statusLabel(status model.CandidateStatus) string {
	if status == model.StatusFailed {
		return m.theme.StatusError.Render("failed, retry")
	}
	return ""
}
