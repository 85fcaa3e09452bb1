package email

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// ServiceInterface sends one email. Implementations must be safe for concurrent use.
type ServiceInterface interface {
	SendEmail(ctx context.Context, to, subject, plainTextContent, htmlContent string) error
}

// sesAPI is the subset of the SES v2 client used by SESV2Sender.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESV2Sender implements ServiceInterface using AWS SES v2.
type SESV2Sender struct {
	client    sesAPI
	fromEmail string
	logger    *slog.Logger
}

// NewSESV2Sender creates a new sender for Amazon SES.
// It automatically loads credentials from the environment
func NewSESV2Sender(ctx context.Context, region, fromEmail string, logger *slog.Logger) (*SESV2Sender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &SESV2Sender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		logger:    logger,
	}, nil
}

// SendEmail sends an email using the AWS SES v2 API. Each call is a
// separate HTTPS request.
func (s *SESV2Sender) SendEmail(ctx context.Context, to, subject, plainTextContent, htmlContent string) error {
	body := &types.Body{
		Text: &types.Content{
			Data:    aws.String(plainTextContent),
			Charset: aws.String("UTF-8"),
		},
	}
	if htmlContent != "" {
		body.Html = &types.Content{
			Data:    aws.String(htmlContent),
			Charset: aws.String("UTF-8"),
		}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES", "to", to, "subject", subject, "error", err)
		return err
	}

	s.logger.Info("sent email", "to", to, "subject", subject, "messageId", aws.ToString(out.MessageId))
	return nil
}

// LogSender writes emails to the log instead of sending them. Used when
// alert delivery runs in dry-run mode.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a dry-run sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendEmail logs the message and always succeeds.
func (s *LogSender) SendEmail(_ context.Context, to, subject, plainTextContent, _ string) error {
	s.logger.Warn("dry run: email not sent", "to", to, "subject", subject, "body", plainTextContent)
	return nil
}
