package factory

import (
	"fmt"

	"github.com/mikey/llm-mail-agent/internal/adapters/smtpserver"
	"github.com/mikey/llm-mail-agent/internal/adapters/webhook"
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"github.com/mikey/llm-mail-agent/internal/ports"
	"go.uber.org/zap"
)

// ReceiverFactory creates the inbound email receiver
type ReceiverFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ReplyService
	parser  *inbound.Parser
}

// NewReceiverFactory creates a new receiver factory
func NewReceiverFactory(cfg *config.Config, logger *zap.Logger, service *core.ReplyService, parser *inbound.Parser) *ReceiverFactory {
	return &ReceiverFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		parser:  parser,
	}
}

// CreateReceiver creates a receiver based on server.receiver
func (f *ReceiverFactory) CreateReceiver() (ports.EmailReceiver, error) {
	server := f.cfg.GetServer()

	switch server.Receiver {
	case "webhook":
		return webhook.NewWebhookServer(
			f.service,
			f.parser,
			f.logger,
			server.ListenAddress,
			server.ReadHeaderTimeout,
		), nil
	case "smtp":
		return smtpserver.NewSMTPReceiver(
			f.service,
			f.parser,
			f.logger,
			server.SMTPListenAddress,
			server.SMTPDomain,
			server.MaxUploadBytes,
		), nil
	default:
		return nil, fmt.Errorf("unsupported receiver type: %s", server.Receiver)
	}
}
