package utils

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"lms/config"
	courseModels "lms/models/course"
)

// Mailer sends transactional email through SendGrid.
type Mailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		client:   sendgrid.NewSendClient(cfg.SendgridApiKey),
		from:     cfg.EmailSender,
		fromName: cfg.EmailFromName,
	}
}

func (m *Mailer) SendEnrollmentConfirmation(email, courseTitle string, amount int64, currency string) error {
	subject := fmt.Sprintf("You're enrolled in %s", courseTitle)
	var body string
	if amount > 0 {
		body = fmt.Sprintf(
			"<p>Your enrollment in <strong>%s</strong> is confirmed.</p><p>Amount charged: %.2f %s</p>",
			courseTitle, courseModels.DisplayAmount(amount), currency,
		)
	} else {
		body = fmt.Sprintf("<p>Your enrollment in <strong>%s</strong> is confirmed. This course is free.</p>", courseTitle)
	}
	return m.send(email, subject, body)
}

func (m *Mailer) SendCertificateIssued(email, courseTitle, serial string) error {
	subject := fmt.Sprintf("Certificate issued for %s", courseTitle)
	body := fmt.Sprintf(
		"<p>Congratulations! You completed <strong>%s</strong>.</p><p>Certificate number: %s</p>",
		courseTitle, serial,
	)
	return m.send(email, subject, body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		subject,
		mail.NewEmail("", to),
		"",
		htmlBody,
	)

	resp, err := m.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}

	log.Printf("email sent to %s: %s", to, subject)
	return nil
}
