package factory

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates the completion clients for every provider
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateProviders registers a completion client per provider name. Keyed
// providers are always registered, bedrock only when enabled.
func (f *LLMFactory) CreateProviders(ctx context.Context) (core.ProviderSet, error) {
	providers := core.ProviderSet{}

	openaiFactory := NewOpenAIFactory(f.cfg, f.logger, f.textProcessor)
	for _, name := range []string{"openai", "anthropic", "perplexity"} {
		providers[name] = openaiFactory.CreateClient(name)
	}

	providers["gemini"] = NewGeminiFactory(f.cfg, f.logger, f.textProcessor).CreateClient()

	if f.cfg.GetBedrock().Enabled {
		client, err := NewBedrockFactory(f.cfg, f.logger, f.textProcessor).CreateClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create bedrock client: %w", err)
		}
		providers["bedrock"] = client
	}

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	f.logger.Info("Registered completion providers", zap.Strings("providers", names))

	return providers, nil
}

// CreateCredentials collects the configured API keys
func (f *LLMFactory) CreateCredentials() *core.Credentials {
	llmCfg := f.cfg.GetLLM()
	creds := &core.Credentials{
		Keys:     llmCfg.APIKeys,
		Fallback: llmCfg.FallbackProvider,
	}
	if llmCfg.APIKeys[creds.Fallback] == "" {
		f.logger.Debug("No fallback API key configured", zap.String("fallback_provider", llmCfg.FallbackProvider))
	}
	return creds
}
