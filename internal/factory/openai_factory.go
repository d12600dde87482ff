package factory

import (
	"github.com/mikey/llm-mail-agent/internal/adapters/openai"
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
)

// OpenAIFactory creates OpenAI-compatible completion clients
type OpenAIFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIFactory creates a new OpenAI factory
func NewOpenAIFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *OpenAIFactory {
	return &OpenAIFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates the client for one provider, honouring a configured base URL
func (f *OpenAIFactory) CreateClient(provider string) *openai.OpenAIClient {
	llmCfg := f.cfg.GetLLM()
	return openai.NewOpenAIClient(
		provider,
		llmCfg.BaseURLs[provider],
		llmCfg.MaxBodySize,
		f.logger.With(zap.String("provider", provider)),
		f.textProcessor,
	)
}
