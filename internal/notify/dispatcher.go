package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/spiffcs/duewatch/internal/log"
	"github.com/spiffcs/duewatch/internal/model"
)

// MailSender is the outbound mail collaborator.
type MailSender interface {
	SendMail(ctx context.Context, to []string, cc, subject, htmlBody string) error
}

// CommentPoster posts composed comment text against an issue identity.
type CommentPoster interface {
	AddIssueComment(ctx context.Context, subjectID, body string) error
}

// Dispatcher delivers composed notifications over one channel. When DryRun
// is set composition and logging still happen, but no collaborator is
// invoked.
type Dispatcher struct {
	DryRun     bool
	Comments   CommentPoster
	Mail       MailSender
	FallbackCC string
}

// Comment posts a composed comment against the issue.
func (d *Dispatcher) Comment(ctx context.Context, issue model.Issue, body string) error {
	if d.DryRun {
		log.Info("dry run: comment not posted", "issue", issue.Number)
		return nil
	}
	if err := d.Comments.AddIssueComment(ctx, issue.ID, body); err != nil {
		return err
	}
	log.Info("comment added", "issue", issue.Number, "id", issue.ID)
	return nil
}

// Email sends a composed message. An empty recipient list is replaced by
// exactly one fallback address; otherwise the fallback is copied in when
// configured.
func (d *Dispatcher) Email(ctx context.Context, issue model.Issue, msg Email) error {
	to := pruneBlank(msg.To)
	cc := strings.TrimSpace(d.FallbackCC)

	if len(to) == 0 {
		if cc == "" {
			return fmt.Errorf("no recipients for issue #%d and no fallback address configured", issue.Number)
		}
		log.Warn("email has no recipients, sending to fallback address",
			"issue", issue.Number, "subject", msg.Subject, "fallback", cc)
		to = []string{cc}
		cc = ""
	}

	if d.DryRun {
		log.Info("dry run: email not sent", "issue", issue.Number, "to", to, "subject", msg.Subject)
		return nil
	}

	if err := d.Mail.SendMail(ctx, to, cc, msg.Subject, msg.HTMLBody); err != nil {
		return err
	}
	log.Info("email sent for issue", "issue", issue.Number, "to", to)
	return nil
}

func pruneBlank(addrs []string) []string {
	var out []string
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}
