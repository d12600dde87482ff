package di

import (
	"context"

	"go.uber.org/dig"

	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/factory"
	"github.com/mikey/llm-mail-agent/internal/logging"
	"github.com/mikey/llm-mail-agent/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideDomain(container); err != nil {
		return nil, err
	}

	// Register mailer
	if err := container.Provide(func(f *factory.MailerFactory) (core.MailSender, error) {
		return f.CreateMailer(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register receiver
	if err := container.Provide(factory.NewReceiverFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ReceiverFactory) (ports.EmailReceiver, error) {
		return f.CreateReceiver()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
