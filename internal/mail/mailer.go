// Package mail sends transactional email over SMTP.
package mail

import (
	"fmt"
	"log"

	gomail "gopkg.in/gomail.v2"
)

// Message is one outbound email. HTML is optional; when set it is attached
// as the alternative body.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends mail through a fixed SMTP relay.
type Mailer struct {
	dialer   *gomail.Dialer
	fromName string
	fromAddr string
}

// NewMailer creates a mailer. fromName is the display name on the From
// header.
func NewMailer(host string, port int, user, pass, fromName string) *Mailer {
	return &Mailer{
		dialer:   gomail.NewDialer(host, port, user, pass),
		fromName: fromName,
		fromAddr: user,
	}
}

// Send delivers one message. The caller decides whether a failure is fatal;
// deployment notifications treat it as best-effort.
func (m *Mailer) Send(msg Message) error {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.fromAddr, m.fromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	log.Printf("[Mailer] Sent %q to %s", msg.Subject, msg.To)
	return nil
}
