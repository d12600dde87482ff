package core

import (
	"context"
)

// CompletionClient sends a completion request to one LLM provider
type CompletionClient interface {
	// Complete returns the reply text for the request
	Complete(ctx context.Context, apiKey string, req *CompletionRequest) (string, error)
}

// AmbientCredentialClient is implemented by clients that authenticate on
// their own (e.g. through the AWS credential chain) and need no API key
type AmbientCredentialClient interface {
	UsesAmbientCredentials() bool
}

// ProviderSet maps provider names to completion clients
type ProviderSet map[string]CompletionClient

// MailSender delivers a reply envelope
type MailSender interface {
	// Send delivers the envelope and reports the transport status
	Send(ctx context.Context, env *ReplyEnvelope) (*DispatchResult, error)

	// Name returns the name of the transport
	Name() string
}

// SenderPolicy decides whether a sender is allowed to use the agent
type SenderPolicy interface {
	IsWhitelisted(sender string) bool
}

// PersonaSelector picks the acting persona for a set of recipients
type PersonaSelector interface {
	// Select returns false when there are no candidate addresses at all
	Select(candidates []string) (Selection, bool)
}
