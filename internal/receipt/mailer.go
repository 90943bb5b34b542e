package receipt

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/resend/resend-go/v2"
)

// SESAPI is the subset of the SES client used by SESMailer
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer implements the Mailer interface using Amazon SES.
// The sender must be a verified SES identity.
type SESMailer struct {
	client SESAPI
}

// NewSESMailer creates a new SESMailer instance
func NewSESMailer(client SESAPI) *SESMailer {
	return &SESMailer{client: client}
}

// Send sends msg as an HTML email
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(msg.HTML),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email failed: %w", err)
	}
	return nil
}

// ResendAPI is the subset of the Resend emails service used by ResendMailer
type ResendAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer implements the Mailer interface using Resend
type ResendMailer struct {
	emails ResendAPI
}

// NewResendMailer creates a new ResendMailer from an API key
func NewResendMailer(apiKey string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	client := resend.NewClient(apiKey)
	return &ResendMailer{emails: client.Emails}, nil
}

// NewResendMailerWithClient creates a new ResendMailer with a custom client for testing
func NewResendMailerWithClient(emails ResendAPI) *ResendMailer {
	return &ResendMailer{emails: emails}
}

// Send sends msg through Resend
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend send email failed: %w", err)
	}
	return nil
}
