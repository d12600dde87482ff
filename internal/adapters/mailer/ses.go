package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/mikey/llm-mail-agent/internal/core"
	"go.uber.org/zap"
)

// SendEmailAPI is the interface for the SES v2 SendEmail operation
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends replies as raw MIME messages through AWS SES v2
type SESMailer struct {
	client SendEmailAPI
	now    func() time.Time
	logger *zap.Logger
}

// NewSESClient loads the AWS configuration for SES. Static credentials are
// used when both keys are set, otherwise the default chain applies.
func NewSESClient(ctx context.Context, region, accessKeyID, secretAccessKey string) (*sesv2.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

// NewSESMailer creates a new SES mailer
func NewSESMailer(client SendEmailAPI, logger *zap.Logger) *SESMailer {
	return &SESMailer{client: client, now: time.Now, logger: logger}
}

// Name returns the mailer name
func (m *SESMailer) Name() string {
	return "ses"
}

// Send delivers the reply via SES
func (m *SESMailer) Send(ctx context.Context, env *core.ReplyEnvelope) (*core.DispatchResult, error) {
	raw, messageID, err := BuildMIME(env, m.now())
	if err != nil {
		return nil, err
	}

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(env.From),
		Destination: &types.Destination{
			ToAddresses: env.To,
			CcAddresses: env.Cc,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("SES send failed: %w", err)
	}

	if out != nil && out.MessageId != nil {
		messageID = aws.ToString(out.MessageId)
	}
	m.logger.Debug("SES accepted message", zap.String("message_id", messageID))
	return &core.DispatchResult{StatusCode: 200, MessageID: messageID}, nil
}
