package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/factory"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"github.com/mikey/llm-mail-agent/internal/persona"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"github.com/mikey/llm-mail-agent/internal/whitelist"
)

// provideDomain registers everything between the configuration and the
// ReplyService. The mailer is registered by the caller.
func provideDomain(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewMailerFactory); err != nil {
		return err
	}

	// Register text processor and inbound parser
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory, tp *utils.TextProcessor) *inbound.Parser {
		return f.CreateParser(tp)
	}); err != nil {
		return err
	}

	// Register completion providers and their credentials
	if err := container.Provide(func(f *factory.LLMFactory) (core.ProviderSet, error) {
		return f.CreateProviders(context.Background())
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.LLMFactory) *core.Credentials {
		return f.CreateCredentials()
	}); err != nil {
		return err
	}

	// Register whitelist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		entries := cfg.GetWhitelist()
		logger.Info("Loaded whitelisted senders", zap.Int("count", len(entries)))
		return whitelist.NewChecker(entries, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(c *whitelist.Checker) core.SenderPolicy { return c }); err != nil {
		return err
	}

	// Register personas
	if err := container.Provide(newPersonaRegistry); err != nil {
		return err
	}
	if err := container.Provide(func(r *persona.Registry) core.PersonaSelector { return r }); err != nil {
		return err
	}

	// Register agent settings
	if err := container.Provide(func(cfg *config.Config) core.AgentSettings {
		agent := cfg.GetAgent()
		return core.AgentSettings{
			Name:          agent.Name,
			SystemPrompt:  agent.SystemPrompt,
			MaxImageBytes: cfg.GetLLM().MaxImageBytes,
		}
	}); err != nil {
		return err
	}

	// Register reply service
	return container.Provide(core.NewReplyService)
}

// newPersonaRegistry merges the configured overrides into the base table.
// Invalid overrides are logged and ignored.
func newPersonaRegistry(cfg *config.Config, logger *zap.Logger) *persona.Registry {
	overrides, err := cfg.GetPersonaOverrides()
	if err != nil {
		logger.Warn("Ignoring invalid persona overrides", zap.Error(err))
		overrides = nil
	}

	agent := cfg.GetAgent()
	return persona.NewRegistry(overrides, persona.Defaults{
		Provider:  agent.DefaultProvider,
		Model:     agent.DefaultModel,
		AgentName: agent.Name,
	}, logger)
}
