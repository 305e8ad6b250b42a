package utils

import (
	"context"
	"fmt"
	"html"

	"coursehub/utils/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridHost = "https://api.sendgrid.com"

// Mailer sends transactional email.
type Mailer interface {
	SendEnrollmentConfirmation(ctx context.Context, to, courseTitle string) error
}

// SendgridMailer delivers mail through the SendGrid v3 API.
type SendgridMailer struct {
	apiKey string
	sender string
	host   string
}

// NewMailer returns a SendGrid mailer, or a logging no-op when apiKey is empty.
func NewMailer(apiKey, sender string, log *logger.Logger) Mailer {
	if apiKey == "" {
		return logMailer{log: log}
	}
	return &SendgridMailer{apiKey: apiKey, sender: sender, host: sendgridHost}
}

func (m *SendgridMailer) SendEnrollmentConfirmation(ctx context.Context, to, courseTitle string) error {
	subject := "You are enrolled: " + courseTitle
	body := getEmailTemplate("Enrollment confirmed",
		fmt.Sprintf("<p>You have been enrolled in <strong>%s</strong>.</p>", html.EscapeString(courseTitle)))

	message := mail.NewSingleEmail(
		mail.NewEmail("CourseHub", m.sender),
		subject,
		mail.NewEmail("", to),
		"You have been enrolled in "+courseTitle+".",
		body,
	)

	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type logMailer struct {
	log *logger.Logger
}

func (m logMailer) SendEnrollmentConfirmation(ctx context.Context, to, courseTitle string) error {
	m.log.Info("email disabled, skipping enrollment confirmation", "course", courseTitle)
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; background-color: #F6F6F6;">
	<div style="max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px;">
		<div style="background-color: #00004D; padding: 30px; text-align: center;">
			<h1 style="color: #FFFFFF; margin: 0;">%s</h1>
		</div>
		<div style="padding: 40px 30px; color: #00004D;">%s</div>
	</div>
</body>
</html>`, html.EscapeString(title), bodyContent)
}
