package mail

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	cfg Config
}

func NewEmailSender(cfg Config) *EmailSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailSender{cfg: cfg}
}

// Configured reports whether the transport can actually dial out. A sender
// without a host or from address drafts messages but never sends them.
func (s *EmailSender) Configured() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

// Send dials SMTP and delivers one email. SMTP assigns no provider id, so
// we mint the Message-Id ourselves and report it back as the external id.
func (s *EmailSender) Send(email OutboundEmail) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	from := email.From
	if from == "" {
		from = s.cfg.From
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), domainOf(from))

	m := gomail.NewMessage()
	m.SetHeader("Message-Id", messageID)
	m.SetHeader("From", from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Body)
	if email.HTMLBody != "" {
		m.AddAlternative("text/html", email.HTMLBody)
	}

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	return messageID, nil
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}
