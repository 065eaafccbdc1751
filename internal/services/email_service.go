package services

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

type EmailService struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("Control Hub <%s>", s.From)
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(htmlBody)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	return e.Send(addr, smtp.PlainAuth("", s.Username, s.Password, s.Host))
}

func (s *EmailService) SendVerificationLink(to, name, link string) error {
	body := fmt.Sprintf(`
        <h2>Hi %s,</h2>
        <p>Thank you for signing up! Please verify your email using the link below:</p>
        <a href="%s" target="_blank" style="padding:10px 20px;background:#5c52b5;color:#fff;border-radius:5px;text-decoration:none;">Verify Email</a>
        <p>The link expires in 10 minutes.</p>
    `, name, link)
	return s.send(to, "Verify Your Control Hub Account", body)
}

func (s *EmailService) SendResetCode(to, name, code string) error {
	body := fmt.Sprintf(`
        <h2>Hi %s,</h2>
        <p>Your password reset code is:</p>
        <h3>%s</h3>
        <p>The code expires in 10 minutes. If you did not request a reset, ignore this email.</p>
    `, name, code)
	return s.send(to, "Control Hub Password Reset", body)
}
