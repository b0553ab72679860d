// services/email_service.go
package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"disasterguardian/config"
	"disasterguardian/interfaces"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
)

// SMTPEmailService sends plain-text mail over SMTP with PLAIN auth.
type SMTPEmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
}

func NewSMTPEmailService(cfg config.NotificationConfig) *SMTPEmailService {
	return &SMTPEmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

func (es *SMTPEmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", es.username, es.password, es.host)
	addr := fmt.Sprintf("%s:%s", es.host, es.port)

	err := smtp.SendMail(addr, auth, es.from, []string{to}, []byte(es.buildMessage(to, subject, body)))
	if err != nil {
		logrus.Errorf("Failed to send email to %s: %v", utils.MaskEmail(to), err)
		return err
	}

	logrus.Infof("Email sent successfully to %s", utils.MaskEmail(to))
	return nil
}

func (es *SMTPEmailService) buildMessage(to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", es.fromName, es.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return b.String()
}

// MockEmailService for development
type MockEmailService struct{}

func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

func (es *MockEmailService) SendEmail(_ context.Context, to, subject, body string) error {
	logrus.Infof("[MOCK EMAIL] To: %s, Subject: %s", to, subject)
	logrus.Debugf("[MOCK EMAIL] Body: %s", body)
	return nil
}

func NewEmailSender(cfg config.NotificationConfig) interfaces.EmailSender {
	if cfg.SMTPEnabled() {
		return NewSMTPEmailService(cfg)
	}
	return NewMockEmailService()
}
