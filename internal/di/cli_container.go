package di

import (
	"context"
	"io"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-agent/internal/adapters/mailer"
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/factory"
	"github.com/mikey/llm-mail-agent/internal/logging"
)

// CLIFlags contains the command line flags shared by the CLI commands
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Send dispatches replies with the configured mailer instead of printing them
	Send bool
	// Output receives printed replies, os.Stdout when nil
	Output io.Writer
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration. Validation is only fatal when replies are sent.
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		if err := cfg.Validate(); err != nil {
			if flags.Send {
				return nil, err
			}
			logger.Warn("Configuration incomplete", zap.Error(err))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideDomain(container); err != nil {
		return nil, err
	}

	// Register mailer, printing replies unless sending was requested
	if err := container.Provide(func(flags *CLIFlags, f *factory.MailerFactory) (core.MailSender, error) {
		if flags.Send {
			return f.CreateMailer(context.Background())
		}
		out := flags.Output
		if out == nil {
			out = os.Stdout
		}
		return mailer.NewStdoutMailerWithWriter(out), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
