// Package notify emails operators about scrape failures that are not
// the student's fault, they usually mean the portal changed its markup.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"acadassist-backend/lib/timezone"

	"github.com/jordan-wright/email"
)

type EmailConfig struct {
	SmtpHost string   `json:"smtp_host"`
	SmtpPort int      `json:"smtp_port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type Mailer struct {
	config EmailConfig
}

// NewMailer returns nil when the config is empty; a nil Mailer
// silently drops notifications.
func NewMailer(config EmailConfig) *Mailer {
	if config.SmtpHost == "" || len(config.To) == 0 {
		return nil
	}
	return &Mailer{config: config}
}

func (m *Mailer) ScrapeFailure(username string, cause error) {
	if m == nil {
		return
	}

	msg := email.NewEmail()
	msg.From = m.config.From
	msg.To = m.config.To
	msg.Subject = fmt.Sprintf("scrape failed for %s", username)
	msg.Text = []byte(fmt.Sprintf(
		"time: %s\nstudent: %s\nerror: %s\n",
		timezone.Now().Format(time.RFC1123),
		username,
		cause,
	))

	addr := fmt.Sprintf("%s:%d", m.config.SmtpHost, m.config.SmtpPort)
	err := msg.Send(addr, smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.SmtpHost))
	if err != nil {
		slog.Warn("failed to send scrape failure mail", "err", err)
	}
}
