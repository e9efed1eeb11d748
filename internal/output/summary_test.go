package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/spiffcs/duewatch/internal/model"
	"github.com/spiffcs/duewatch/internal/runner"
)

func TestRunSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	RunSummary(&buf, model.ModeOverdue, model.ChannelComment, runner.Summary{
		Scanned: 5, Notified: 2, Skipped: 2, Failed: 1,
	})

	out := buf.String()
	for _, want := range []string{
		"Overdue issues (via comment)",
		"Scanned:  5",
		"Notified: 2",
		"Skipped:  2",
		"Failed:   1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRunSummaryEmpty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	RunSummary(&buf, model.ModeMissingDueDate, model.ChannelEmail, runner.Summary{})

	if !strings.Contains(buf.String(), "No matching issues found.") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRunSummaryOmitsFailuresWhenNone(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	RunSummary(&buf, model.ModeExpiring, model.ChannelComment, runner.Summary{Scanned: 1, Notified: 1})

	if strings.Contains(buf.String(), "Failed") {
		t.Errorf("failure line should be omitted:\n%s", buf.String())
	}
}

func TestDryRunBanner(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	DryRunBanner(&buf)

	if !strings.Contains(buf.String(), "DRY RUN") {
		t.Errorf("unexpected banner:\n%s", buf.String())
	}
}
