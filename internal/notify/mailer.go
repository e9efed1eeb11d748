package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/spiffcs/duewatch/internal/log"
)

// attemptTimeout bounds each SMTP connection attempt. It covers a single
// strategy, not the whole send.
const attemptTimeout = 10 * time.Second

// SMTP connection strategy ports.
const (
	startTLSPort = 587
	sslPort      = 465
)

// Mailer sends HTML mail over SMTP. Each send tries an ordered list of
// connection strategies (STARTTLS upgrade first, then implicit TLS) and
// stops at the first success. A failed STARTTLS upgrade abandons that
// strategy rather than retrying it.
type Mailer struct {
	Host     string
	Username string
	Password string
	From     string
}

// smtpStrategy is one connection approach to the SMTP host.
type smtpStrategy struct {
	name string
	opts []mail.Option
}

func (m *Mailer) strategies() []smtpStrategy {
	return []smtpStrategy{
		{
			name: fmt.Sprintf("starttls:%d", startTLSPort),
			opts: []mail.Option{
				mail.WithPort(startTLSPort),
				mail.WithTLSPolicy(mail.TLSMandatory),
			},
		},
		{
			name: fmt.Sprintf("ssl:%d", sslPort),
			opts: []mail.Option{
				mail.WithPort(sslPort),
				mail.WithSSL(),
			},
		},
	}
}

// SendMail delivers one HTML message. cc may be blank. The error returned
// carries the last strategy's failure; callers treat it as non-fatal for
// the run.
func (m *Mailer) SendMail(ctx context.Context, to []string, cc, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.From, err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("invalid recipient list %v: %w", to, err)
	}
	if cc != "" {
		if err := msg.Cc(cc); err != nil {
			return fmt.Errorf("invalid cc address %q: %w", cc, err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	var lastErr error
	for _, s := range m.strategies() {
		opts := append([]mail.Option{
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.Username),
			mail.WithPassword(m.Password),
			mail.WithTimeout(attemptTimeout),
		}, s.opts...)

		client, err := mail.NewClient(m.Host, opts...)
		if err != nil {
			lastErr = err
			log.Warn("smtp client setup failed", "strategy", s.name, "error", err)
			continue
		}

		if err := client.DialAndSendWithContext(ctx, msg); err != nil {
			lastErr = err
			log.Warn("smtp send failed", "strategy", s.name, "error", err)
			continue
		}

		log.Info("email sent", "strategy", s.name, "subject", subject)
		return nil
	}

	return fmt.Errorf("could not send email %q: %w", subject, lastErr)
}
