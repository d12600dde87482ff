package factory

import (
	"github.com/mikey/llm-mail-agent/internal/adapters/gemini"
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiFactory creates Gemini completion clients
type GeminiFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *GeminiFactory {
	return &GeminiFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a Gemini client
func (f *GeminiFactory) CreateClient() *gemini.GeminiClient {
	llmCfg := f.cfg.GetLLM()

	var opts []option.ClientOption
	if endpoint := llmCfg.BaseURLs["gemini"]; endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	return gemini.NewGeminiClient(
		llmCfg.MaxTokens,
		llmCfg.MaxBodySize,
		f.logger.With(zap.String("provider", "gemini")),
		f.textProcessor,
		opts...,
	)
}
