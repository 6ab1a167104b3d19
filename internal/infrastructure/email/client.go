// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/resendlabs/resend-go"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/email/templates"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendLeaveDecisionEmail(toEmail string, props templates.LeaveDecisionProps) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("NOTIFY_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@rollcallhq.com"
	}

	fromName := os.Getenv("NOTIFY_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "RollCall"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendLeaveDecisionEmail composes and sends the approval/rejection notice for a leave request.
func (c *ResendClient) SendLeaveDecisionEmail(toEmail string, props templates.LeaveDecisionProps) error {
	subject := fmt.Sprintf("Leave request %s", props.Decision)

	content := templates.GetLeaveDecisionContent(props)
	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Content: content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send leave decision email via Resend: %w", err)
	}

	return nil
}
