package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/config"
)

// Notifier delivers outbound messages to users. Sends are best-effort and
// fire-and-forget: failures are logged, never propagated to the request that
// triggered them, and never retried.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPNotifier sends plain-text email over SMTP with optional AUTH.
type SMTPNotifier struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewSMTPNotifier(cfg *config.Config) *SMTPNotifier {
	return &SMTPNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

func (n *SMTPNotifier) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", n.host, n.port)
	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.password, n.host)
	}
	return smtp.SendMail(addr, auth, n.from, []string{to}, []byte(msg))
}

// LogNotifier is used when SMTP isn't configured; it records what would have
// been sent. Keeps development environments working without a mail server.
type LogNotifier struct{}

func (LogNotifier) Send(to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("notification (email disabled)")
	return nil
}

// Notify dispatches a send on its own goroutine, detached from any request
// context. Cancelling the request that triggered the notification must not
// cancel or block on the send.
func Notify(n Notifier, to, subject, body string) {
	if n == nil || to == "" {
		return
	}
	go func() {
		if err := n.Send(to, subject, body); err != nil {
			log.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("notification send failed")
		}
	}()
}
