package mailer

import (
	"fmt"
	"net/smtp"
)

// Mailer delivers transactional mail. Callers treat delivery as
// fire-and-forget: a failed send is logged upstream, never propagated.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	host string
	port string
	from string
	auth smtp.Auth
}

// NewSMTPMailer returns a Mailer backed by a plain SMTP relay. username and
// password may be empty for an unauthenticated local relay.
func NewSMTPMailer(host, port, from, username, password string) Mailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &smtpMailer{host: host, port: port, from: from, auth: auth}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	return smtp.SendMail(m.host+":"+m.port, m.auth, m.from, []string{to}, []byte(msg))
}

// NopMailer discards all mail; used in development when no relay is configured.
type NopMailer struct{}

func (NopMailer) Send(to, subject, body string) error { return nil }
