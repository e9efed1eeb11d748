// Package output renders the human-facing run report.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/spiffcs/duewatch/internal/model"
	"github.com/spiffcs/duewatch/internal/runner"
)

// modeLabels maps run modes to the heading shown in the report.
var modeLabels = map[model.RunMode]string{
	model.ModeOverdue:        "Overdue issues",
	model.ModeExpiring:       "Issues expiring soon",
	model.ModeMissingDueDate: "Issues missing a due date",
}

// DryRunBanner prints a prominent notice that no notifications will be sent.
func DryRunBanner(w io.Writer) {
	fmt.Fprintln(w, color.YellowString("DRY RUN: notifications are composed and logged but not sent"))
	fmt.Fprintln(w)
}

// RunSummary prints the result of one notification run.
func RunSummary(w io.Writer, mode model.RunMode, channel model.Channel, sum runner.Summary) {
	label := modeLabels[mode]
	if label == "" {
		label = string(mode)
	}

	fmt.Fprintf(w, "%s (via %s)\n", color.New(color.Bold).Sprint(label), channel)
	fmt.Fprintln(w)

	if sum.Scanned == 0 {
		fmt.Fprintln(w, "No matching issues found.")
		return
	}

	fmt.Fprintf(w, "  Scanned:  %d\n", sum.Scanned)
	fmt.Fprintf(w, "  Notified: %s\n", color.GreenString("%d", sum.Notified))
	fmt.Fprintf(w, "  Skipped:  %d\n", sum.Skipped)

	if sum.Failed > 0 {
		fmt.Fprintf(w, "  Failed:   %s\n", color.RedString("%d", sum.Failed))
	}
}
