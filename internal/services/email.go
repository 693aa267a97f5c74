package services

import (
	"fmt"
	"html"
	"net/smtp"
	"time"

	"github.com/dimitrije/coachlink-api/internal/config"
)

type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

func (s *EmailService) SendInvitationCode(to, inviterName, kind, code string, expiresAt time.Time) error {
	subject := fmt.Sprintf("%s invited you to connect as their %s", inviterName, inviteeLabel(kind))
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>You have an invitation</h2>
			<p>Hi,</p>
			<p><strong>%s</strong> has invited you to connect on CoachLink.</p>
			<p>Enter this code in the app to accept:</p>
			<p style="font-size: 24px; letter-spacing: 4px;"><strong>%s</strong></p>
			<p>The code expires on %s.</p>
		</body>
		</html>
	`, html.EscapeString(inviterName), code, expiresAt.UTC().Format("January 2, 2006 15:04 MST"))

	return s.Send(to, subject, body)
}

func inviteeLabel(kind string) string {
	if kind == "parent" {
		return "athlete"
	}
	return "trainee"
}
