package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/bloodbank-api/internal/config"
	"github.com/jwalitptl/bloodbank-api/internal/model"
)

var ErrNoRecipient = errors.New("email: recipient required")

type Service interface {
	SendEmergencyAlert(ctx context.Context, to, name string, event *model.EmergencyRequestEvent) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	sender Sender
	from   string
}

// NewSMTPService dials the configured SMTP server once per message.
func NewSMTPService(cfg config.SMTPConfig) Service {
	return NewService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

func NewService(sender Sender, from string) Service {
	return &smtpService{sender: sender, from: from}
}

func (s *smtpService) SendEmergencyAlert(ctx context.Context, to, name string, event *model.EmergencyRequestEvent) error {
	city := "your city"
	if event.City != nil {
		city = *event.City
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s,</p>", name)
	fmt.Fprintf(&b, "<p>An emergency request needs %d unit(s) of %s blood in %s.</p>",
		event.QuantityUnits, event.BloodGroup, city)
	b.WriteString("<p>If you are able to donate, please contact your nearest blood bank.</p>")

	subject := fmt.Sprintf("Urgent: %s blood needed in %s", event.BloodGroup, city)
	return s.SendCustom(ctx, to, subject, b.String())
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if to == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
