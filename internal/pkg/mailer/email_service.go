package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendBlockedNotice(toEmail, name string, inactiveDays int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
}

// NewEmailService returns a mailer. With an empty host it returns a service
// that only logs, so development setups need no SMTP server.
func NewEmailService(host string, port int, username, password, senderName, clientURL string) IEmailService {
	if host == "" {
		return &logOnlyEmailService{}
	}
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

func (s *emailService) SendBlockedNotice(toEmail, name string, inactiveDays int) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Lamdam account has been paused")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s,</h2>
			<p>We have not seen any activity from your account in the last %d days, so it has been blocked.</p>
			<p>Please contact a superuser to reactivate it, then sign in again at <a href="%s">%s</a>.</p>
		</div>
	`, html.EscapeString(name), inactiveDays, s.clientURL, s.clientURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send blocked notice to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Blocked notice sent to %s\n", toEmail)
	return nil
}

type logOnlyEmailService struct{}

func (logOnlyEmailService) SendBlockedNotice(toEmail, name string, inactiveDays int) error {
	fmt.Printf("[MAILER] SMTP not configured, skipping blocked notice to %s\n", toEmail)
	return nil
}
