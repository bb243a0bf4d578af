package services

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"taskxp/internal/config"
)

type EmailService interface {
	SendWelcomeEmail(email, name string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService returns a no-op sender when no SMTP host is configured.
func NewEmailService(cfg config.EmailConfig) EmailService {
	if cfg.SMTPHost == "" {
		return noopEmailService{}
	}
	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUser
	}
	return &emailService{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   from,
	}
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to TaskXP!")

	body := fmt.Sprintf(`
		<h2>Welcome to TaskXP, %s!</h2>
		<p>Your account is ready. Every task you finish earns XP, and finishing something each day builds your streak.</p>
		<p>You are starting at level 1. Good luck!</p>
	`, html.EscapeString(name))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

type noopEmailService struct{}

func (noopEmailService) SendWelcomeEmail(string, string) error { return nil }
