// Package notify composes and dispatches due-date notifications over the
// comment and email channels.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/duewatch/internal/log"
	"github.com/spiffcs/duewatch/internal/model"
)

// dueDateFormat renders calendar dates in notification text, e.g. "May 01, 2026".
const dueDateFormat = "Jan 02, 2006"

// Email is a composed message ready for the mail transport. To may be empty;
// the dispatcher substitutes the fallback address in that case.
type Email struct {
	Subject  string
	HTMLBody string
	To       []string
}

// loginMentions builds the "@login " prefix for comments, skipping assignees
// with a blank login. An issue with no assignees still gets a comment, just
// without mentions.
func loginMentions(issue model.Issue) string {
	var sb strings.Builder
	found := false
	for _, a := range issue.Assignees {
		if strings.TrimSpace(a.Login) == "" {
			continue
		}
		sb.WriteString("@" + a.Login + " ")
		found = true
	}
	if !found {
		log.Info("no assignees found for issue", "issue", issue.Number)
	}
	return sb.String()
}

// nameMentions builds the "@name" list for email bodies, skipping blank names.
func nameMentions(issue model.Issue) string {
	var parts []string
	for _, a := range issue.Assignees {
		if strings.TrimSpace(a.Name) == "" {
			continue
		}
		parts = append(parts, "@"+a.Name)
	}
	if len(parts) == 0 {
		log.Info("no assignees found for issue", "issue", issue.Number)
	}
	return strings.Join(parts, " ")
}

// recipients collects the assignees' non-blank email addresses.
func recipients(issue model.Issue) []string {
	var to []string
	for _, a := range issue.Assignees {
		addr := strings.TrimSpace(a.Email)
		if addr == "" {
			continue
		}
		to = append(to, addr)
	}
	return to
}

// OverdueComment composes the comment for an overdue issue.
func OverdueComment(issue model.Issue, dueDate time.Time) string {
	comment := loginMentions(issue) +
		"The issue is overdue since: " + dueDate.Format(dueDateFormat)
	log.Info("composed comment", "issue", issue.Number, "title", issue.Title, "comment", comment)
	return comment
}

// ExpiringComment composes the comment for an issue due within the expiry
// window.
func ExpiringComment(issue model.Issue, dueDate time.Time) string {
	comment := loginMentions(issue) +
		"The issue is due on: " + dueDate.Format(dueDateFormat)
	log.Info("composed comment", "issue", issue.Number, "title", issue.Title, "comment", comment)
	return comment
}

// MissingDueDateComment composes the comment asking for a due date to be set.
func MissingDueDateComment(issue model.Issue) string {
	comment := loginMentions(issue) +
		"Kindly set the `Due Date` for this issue."
	log.Info("composed comment", "issue", issue.Number, "title", issue.Title, "comment", comment)
	return comment
}

// OverdueEmail composes the email for an overdue issue.
func OverdueEmail(issue model.Issue, dueDate time.Time) Email {
	mentions := nameMentions(issue)
	if mentions == "" {
		mentions = "No assignees"
	}

	body := fmt.Sprintf(
		"<p>Reminder: The issue <strong>%s</strong> (#%d) is overdue since <strong>%s</strong>.</p>\n"+
			"<p>Assignees: %s</p>\n"+
			"<p>Please ensure the issue is completed.</p>\n"+
			`<p><a href="%s">View Issue</a></p>`,
		issue.Title, issue.Number, dueDate.Format(dueDateFormat), mentions, issue.URL)

	return Email{
		Subject:  fmt.Sprintf("[Reminder: Overdue Issue] %s (#%d)", issue.Title, issue.Number),
		HTMLBody: body,
		To:       recipients(issue),
	}
}

// ExpiringEmail composes the email for an issue due within the expiry
// window. The subject and body vary with the number of days remaining.
func ExpiringEmail(issue model.Issue, dueDate, today time.Time) Email {
	remaining := int(dueDate.Sub(today).Hours() / 24)

	var urgency, dueText string
	switch remaining {
	case 0:
		urgency = "Due today"
		dueText = "is due <strong>today</strong>"
	case 1:
		urgency = "Due tomorrow"
		dueText = "is due <strong>tomorrow</strong>"
	default:
		urgency = fmt.Sprintf("Due in %d days", remaining)
		dueText = fmt.Sprintf("is due in <strong>%d days</strong>", remaining)
	}

	mentions := nameMentions(issue)
	if mentions == "" {
		mentions = "No assignees"
	}

	body := fmt.Sprintf(
		"<p>Reminder: The issue <strong>%s</strong> (#%d) %s on <strong>%s</strong>.</p>\n"+
			"<p>Assignees: %s</p>\n"+
			"<p>Please ensure the due date is met.</p>\n"+
			`<p><a href="%s">View Issue</a></p>`,
		issue.Title, issue.Number, dueText, dueDate.Format(dueDateFormat), mentions, issue.URL)

	return Email{
		Subject:  fmt.Sprintf("[Reminder: %s] %s (#%d)", urgency, issue.Title, issue.Number),
		HTMLBody: body,
		To:       recipients(issue),
	}
}

// MissingDueDateEmail composes the email asking for a due date to be set.
func MissingDueDateEmail(issue model.Issue) Email {
	mentions := nameMentions(issue)

	body := fmt.Sprintf(
		"<p>Assignees: %s</p>\n"+
			"<p>Kindly set the due date for this issue.</p>\n"+
			`<p><a href="%s">View Issue</a></p>`,
		mentions, issue.URL)

	return Email{
		Subject:  fmt.Sprintf("[Reminder: Set Due Date] %s (#%d)", issue.Title, issue.Number),
		HTMLBody: body,
		To:       recipients(issue),
	}
}
