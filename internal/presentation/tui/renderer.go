package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/remotedev/pkg/collector"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// ReportsMarkdown lays out report summaries as a markdown table.
func ReportsMarkdown(reports []collector.Summary) string {
	if len(reports) == 0 {
		return "_No reports received yet._\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Reports (%d)\n\n", len(reports))
	b.WriteString("| ID | Received | Type | Action | Title | Exception |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s | %s |\n",
			r.ID,
			r.ReceivedAt.Format(time.RFC3339),
			r.Type,
			cell(r.Action),
			cell(r.Title),
			cell(r.Exception),
		)
	}
	return b.String()
}

// cell keeps a value from breaking the table.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
