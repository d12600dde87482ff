package factory

import (
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates text processors and the inbound parser built on them
type TextProcessorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger, f.cfg.GetInbound().HTMLMode)
}

// CreateParser creates the inbound payload parser
func (f *TextProcessorFactory) CreateParser(tp *utils.TextProcessor) *inbound.Parser {
	return inbound.NewParser(tp, f.cfg.GetServer().MaxUploadBytes, f.logger)
}
