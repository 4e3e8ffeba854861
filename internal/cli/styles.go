// Package cli provides styled terminal output and the line-mode review flow.
package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// CreditColor marks money coming in.
	CreditColor = lipgloss.Color("#4ECDC4")
	// DebitColor marks money going out.
	DebitColor = lipgloss.Color("#FF6B6B")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(CreditColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// CreditStyle renders credit amounts.
	CreditStyle = lipgloss.NewStyle().Bold(true).Foreground(CreditColor)

	// DebitStyle renders debit amounts.
	DebitStyle = lipgloss.NewStyle().Bold(true).Foreground(DebitColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LedgerIcon  = "📒"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return SubtleStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the ledger icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(LedgerIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// FormatAmount renders a candidate's amount colored by direction.
func FormatAmount(c model.Candidate) string {
	if c.Type == model.Debit {
		return DebitStyle.Render("- INR " + c.Amount)
	}
	return CreditStyle.Render("+ INR " + c.Amount)
}

// FormatStatus renders a short status marker for list views.
func FormatStatus(status model.CandidateStatus) string {
	switch status {
	case model.StatusFailed:
		return ErrorStyle.Render("failed")
	case model.StatusAnnotating:
		return WarningStyle.Render("open")
	case model.StatusSubmitting:
		return WarningStyle.Render("sending")
	case model.StatusReconciled:
		return SuccessStyle.Render("done")
	default:
		return SubtleStyle.Render("pending")
	}
}

// RenderCandidateTable renders candidates as a numbered table.
func RenderCandidateTable(candidates []model.Candidate) string {
	if len(candidates) == 0 {
		return SubtleStyle.Render("No transactions found.")
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-4s %-8s %-7s %-18s %s", "#", "ID", "TYPE", "AMOUNT", "FROM")))
	b.WriteString("\n")
	for i, c := range candidates {
		amount := FormatAmount(c)
		pad := 18 - lipgloss.Width(amount)
		if pad < 1 {
			pad = 1
		}
		fmt.Fprintf(&b, "%-4d %-8s %-7s %s%s%s  %s\n",
			i+1, truncate(c.ID, 8), c.Type, amount, strings.Repeat(" ", pad), truncate(c.Address, 16), FormatStatus(c.Status))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
