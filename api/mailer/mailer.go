// Package mailer sends transactional email through SendGrid.
package mailer

import (
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends email from the configured sender address
type Mailer struct {
	From string
}

// New creates a mailer. An empty from falls back to the project default.
func New(from string) *Mailer {
	if from == "" {
		from = "no-reply@familyrecipes.app"
	}
	return &Mailer{From: from}
}

// Send delivers a single email. A non-2xx SendGrid status is logged but not
// returned as an error.
func (m *Mailer) Send(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("Family Recipes", m.From)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
