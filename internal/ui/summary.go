// Package ui renders run output for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tuannvm/jiraclean/internal/pipeline"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1)

	previewTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("11"))

	previewBodyStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderLeft(true).
				BorderForeground(lipgloss.Color("8")).
				PaddingLeft(1)

	labelStyle = lipgloss.NewStyle().Width(22)
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// Header describes the run before it starts.
func Header(project, mode, analyzerKind string, maxTickets int) string {
	limit := "all"
	if maxTickets > 0 {
		limit = fmt.Sprintf("%d", maxTickets)
	}
	return headerStyle.Render(fmt.Sprintf(
		"jiraclean  project=%s  mode=%s  analyzer=%s  max-tickets=%s",
		project, mode, analyzerKind, limit,
	))
}

// Preview renders a dry-run comment exactly as it would have been posted.
func Preview(ticketKey, body string) string {
	title := previewTitleStyle.Render(fmt.Sprintf("DRY RUN: comment for %s", ticketKey))
	return title + "\n" + previewBodyStyle.Render(body)
}

// Summary renders the final statistics table.
func Summary(stats pipeline.Stats) string {
	rows := []struct {
		label string
		value int
	}{
		{"Processed", stats.Processed},
		{"Needing action", stats.NeedsAction},
		{"No action needed", stats.NoAction},
		{"Assessment failures", stats.AssessmentFailures},
		{"Actions executed", stats.ActionsExecuted},
		{"Skipped by filter", stats.Skipped},
		{"Errors", stats.Errors},
	}

	var b strings.Builder
	b.WriteString(previewTitleStyle.Render("Run summary"))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(labelStyle.Render(row.label))
		b.WriteString(fmt.Sprintf("%d\n", row.value))
	}
	return b.String()
}

// Fatal renders a run-aborting error distinctly from a clean summary.
func Fatal(err error) string {
	return warnStyle.Render(fmt.Sprintf("Run aborted: %v", err))
}
