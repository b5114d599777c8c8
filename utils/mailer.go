package utils

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sirupsen/logrus"
)

// Mailer sends transactional mail via SES.
type Mailer struct {
	client *ses.Client
	sender string
}

func NewMailer(ctx context.Context, region, sender string) (*Mailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Mailer{client: ses.NewFromConfig(cfg), sender: sender}, nil
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
		Source: aws.String(m.sender),
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		logrus.WithError(err).Warn("SES send failed")
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

// SendResetEmail mails a password reset code.
func (m *Mailer) SendResetEmail(ctx context.Context, to, code string) error {
	subject := "Your password reset code"
	body := fmt.Sprintf("Your password reset code is: %s\n\nUse this in the app to set a new password.", code)
	return m.send(ctx, to, subject, body)
}
