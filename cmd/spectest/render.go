package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4D35E"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// RenderSummary formats per-directive outcomes and the final tally. With
// colored false, plain text is emitted for non-terminal output.
func RenderSummary(results []Result, colored bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !colored {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(headerStyle, "spectest results"))
	b.WriteByte('\n')

	for _, r := range results {
		var mark string
		switch r.Outcome {
		case OutcomePass:
			mark = style(passStyle, "PASS")
		case OutcomeSkip:
			mark = style(skipStyle, "SKIP")
		default:
			mark = style(failStyle, "FAIL")
		}
		fmt.Fprintf(&b, "%s  #%d %s", mark, r.Index, r.Op)
		if r.Detail != "" {
			b.WriteString("  ")
			b.WriteString(style(detailStyle, r.Detail))
		}
		if r.Err != nil && r.Outcome == OutcomeFail {
			b.WriteString("  ")
			b.WriteString(style(detailStyle, r.Err.Error()))
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\n%d pass, %d fail, %d skip (%d total)\n",
		countOutcome(results, OutcomePass),
		countOutcome(results, OutcomeFail),
		countOutcome(results, OutcomeSkip),
		len(results))
	return b.String()
}
