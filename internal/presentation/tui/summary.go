package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/aretw0/arbor/pkg/domain"
)

// RenderRunSummary formats a finished run for terminal output: status line,
// visited path and the per-step log. Colors degrade gracefully on dumb
// terminals via termenv's profile detection.
func RenderRunSummary(run *domain.Run) string {
	p := termenv.ColorProfile()
	var sb strings.Builder

	status := termenv.String(string(run.Status))
	switch run.Status {
	case domain.StatusCompleted:
		status = status.Foreground(p.Color("#4ade80")).Bold()
	case domain.StatusFailed:
		status = status.Foreground(p.Color("#f87171")).Bold()
	default:
		status = status.Foreground(p.Color("#fbbf24")).Bold()
	}

	sb.WriteString(fmt.Sprintf("Run %s  %s\n", run.RunID, status))
	if run.Error != "" {
		sb.WriteString(termenv.String("  error: "+run.Error).Foreground(p.Color("#f87171")).String())
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Path: %s\n", strings.Join(run.VisitedNodes, " -> ")))

	if len(run.Logs) > 0 {
		sb.WriteString("Steps:\n")
		for _, log := range run.Logs {
			marker := termenv.String("✓").Foreground(p.Color("#4ade80"))
			if log.Status == domain.StepError {
				marker = termenv.String("✗").Foreground(p.Color("#f87171"))
			}
			sb.WriteString(fmt.Sprintf("  %s %-24s %s\n", marker, log.NodeName, log.Duration.Round(time.Microsecond)))
		}
	}

	if run.CompletedAt != nil {
		sb.WriteString(termenv.String(fmt.Sprintf("Total: %s", run.CompletedAt.Sub(run.CreatedAt).Round(time.Microsecond))).Faint().String())
		sb.WriteString("\n")
	}
	return sb.String()
}
