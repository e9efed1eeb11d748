package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/duewatch/internal/model"
)

var (
	today   = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	dueDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
)

func testIssue(assignees ...model.Assignee) model.Issue {
	return model.Issue{
		ID:        "ISSUE_1",
		Number:    42,
		Title:     "Ship the thing",
		URL:       "https://github.com/org/repo/issues/42",
		Assignees: assignees,
	}
}

func TestOverdueComment(t *testing.T) {
	issue := testIssue(
		model.Assignee{Name: "Ada Lovelace", Login: "ada"},
		model.Assignee{Name: "No Login", Login: "  "},
		model.Assignee{Name: "Grace Hopper", Login: "grace"},
	)

	got := OverdueComment(issue, dueDate)
	want := "@ada @grace The issue is overdue since: May 01, 2026"
	if got != want {
		t.Errorf("OverdueComment() = %q, want %q", got, want)
	}
}

func TestExpiringComment(t *testing.T) {
	got := ExpiringComment(testIssue(model.Assignee{Login: "ada"}), dueDate)
	want := "@ada The issue is due on: May 01, 2026"
	if got != want {
		t.Errorf("ExpiringComment() = %q, want %q", got, want)
	}
}

func TestMissingDueDateComment(t *testing.T) {
	got := MissingDueDateComment(testIssue(model.Assignee{Login: "ada"}))
	want := "@ada Kindly set the `Due Date` for this issue."
	if got != want {
		t.Errorf("MissingDueDateComment() = %q, want %q", got, want)
	}
}

func TestCommentWithoutAssignees(t *testing.T) {
	// No assignees is not an error: the comment is just the fixed sentence.
	got := MissingDueDateComment(testIssue())
	want := "Kindly set the `Due Date` for this issue."
	if got != want {
		t.Errorf("MissingDueDateComment() = %q, want %q", got, want)
	}
}

func TestOverdueEmail(t *testing.T) {
	issue := testIssue(
		model.Assignee{Name: "Ada Lovelace", Email: "ada@example.com", Login: "ada"},
		model.Assignee{Name: "Grace Hopper", Email: " ", Login: "grace"},
	)

	msg := OverdueEmail(issue, dueDate)

	wantSubject := "[Reminder: Overdue Issue] Ship the thing (#42)"
	if msg.Subject != wantSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, wantSubject)
	}
	if len(msg.To) != 1 || msg.To[0] != "ada@example.com" {
		t.Errorf("To = %v, want only ada@example.com", msg.To)
	}
	for _, fragment := range []string{
		"overdue since <strong>May 01, 2026</strong>",
		"@Ada Lovelace @Grace Hopper",
		`<a href="https://github.com/org/repo/issues/42">View Issue</a>`,
	} {
		if !strings.Contains(msg.HTMLBody, fragment) {
			t.Errorf("body missing %q:\n%s", fragment, msg.HTMLBody)
		}
	}
}

func TestExpiringEmailSubjects(t *testing.T) {
	tests := []struct {
		name        string
		due         time.Time
		wantSubject string
		wantInBody  string
	}{
		{
			name:        "due today",
			due:         today,
			wantSubject: "[Reminder: Due today] Ship the thing (#42)",
			wantInBody:  "is due <strong>today</strong>",
		},
		{
			name:        "due tomorrow",
			due:         today.AddDate(0, 0, 1),
			wantSubject: "[Reminder: Due tomorrow] Ship the thing (#42)",
			wantInBody:  "is due <strong>tomorrow</strong>",
		},
		{
			name:        "due in two days",
			due:         today.AddDate(0, 0, 2),
			wantSubject: "[Reminder: Due in 2 days] Ship the thing (#42)",
			wantInBody:  "is due in <strong>2 days</strong>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ExpiringEmail(testIssue(), tt.due, today)
			if msg.Subject != tt.wantSubject {
				t.Errorf("Subject = %q, want %q", msg.Subject, tt.wantSubject)
			}
			if !strings.Contains(msg.HTMLBody, tt.wantInBody) {
				t.Errorf("body missing %q:\n%s", tt.wantInBody, msg.HTMLBody)
			}
		})
	}
}

func TestEmailWithoutAssignees(t *testing.T) {
	msg := OverdueEmail(testIssue(), dueDate)

	if len(msg.To) != 0 {
		t.Errorf("expected empty recipient list, got %v", msg.To)
	}
	if !strings.Contains(msg.HTMLBody, "Assignees: No assignees") {
		t.Errorf("body should note missing assignees:\n%s", msg.HTMLBody)
	}
}

func TestMissingDueDateEmail(t *testing.T) {
	issue := testIssue(model.Assignee{Name: "Ada Lovelace", Email: "ada@example.com"})
	msg := MissingDueDateEmail(issue)

	wantSubject := "[Reminder: Set Due Date] Ship the thing (#42)"
	if msg.Subject != wantSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, wantSubject)
	}
	if !strings.Contains(msg.HTMLBody, "Kindly set the due date") {
		t.Errorf("body missing due-date request:\n%s", msg.HTMLBody)
	}
}
