package factory

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-agent/internal/adapters/mailer"
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/core"
	"go.uber.org/zap"
)

// MailerFactory creates the outbound mailer
type MailerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailerFactory creates a new mailer factory
func NewMailerFactory(cfg *config.Config, logger *zap.Logger) *MailerFactory {
	return &MailerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailer creates a mailer based on mailer.type
func (f *MailerFactory) CreateMailer(ctx context.Context) (core.MailSender, error) {
	mailerType := f.cfg.GetMailer().Type
	logger := f.logger.With(zap.String("mailer", mailerType))

	switch mailerType {
	case "sendgrid":
		sg := f.cfg.GetSendGrid()
		return mailer.NewSendGridMailer(sg.APIKey, sg.BaseURL, nil, logger), nil
	case "ses":
		ses := f.cfg.GetSES()
		client, err := mailer.NewSESClient(ctx, ses.Region, ses.AccessKeyID, ses.SecretAccessKey)
		if err != nil {
			return nil, err
		}
		return mailer.NewSESMailer(client, logger), nil
	case "smtp":
		s := f.cfg.GetSMTP()
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Address:  s.Address,
			Port:     s.Port,
			Username: s.Username,
			Password: s.Password,
			TLS:      s.TLS,
		}, logger), nil
	case "stdout":
		return mailer.NewStdoutMailer(), nil
	default:
		return nil, fmt.Errorf("unsupported mailer type: %s", mailerType)
	}
}
