package ports

import (
	"context"

	"github.com/mikey/llm-mail-agent/internal/core"
)

// EmailReceiver defines the interface for services that accept inbound email
type EmailReceiver interface {
	// ProcessEmail runs one inbound email through the reply flow
	ProcessEmail(ctx context.Context, msg *core.InboundMessage) (*core.Outcome, error)

	// Start starts the receiver
	Start() error

	// Stop stops the receiver
	Stop() error
}
