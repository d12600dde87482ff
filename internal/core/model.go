package core

import (
	"encoding/base64"
	"strings"
)

// Attachment represents a file uploaded alongside an inbound email
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// InboundMessage represents an email received through the webhook
type InboundMessage struct {
	From        string
	To          string
	Cc          string
	Subject     string
	Text        string
	MessageID   string
	References  string
	Attachments []Attachment
}

// ThreadReferences returns the References chain for a reply: the original
// References followed by the original Message-ID, or whichever is present.
func (m *InboundMessage) ThreadReferences() string {
	refs := strings.TrimSpace(m.References)
	id := strings.TrimSpace(m.MessageID)
	switch {
	case refs != "" && id != "":
		return refs + " " + id
	case id != "":
		return id
	default:
		return refs
	}
}

// Persona is a synthetic identity an email can be routed to
type Persona struct {
	Key      string `json:"-"`
	Model    string `json:"model" mapstructure:"model"`
	Name     string `json:"name" mapstructure:"name"`
	Provider string `json:"provider" mapstructure:"provider"`
}

// Selection is the outcome of persona selection
type Selection struct {
	// Address is the persona address the reply is sent from
	Address string
	Persona Persona
	// Matched is false when no recipient local part named a known persona
	Matched bool
}

// Role tags a completion message
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// PartType identifies the kind of content in a message part
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// ContentPart is a single block of text or image data
type ContentPart struct {
	Type      PartType
	Text      string
	MediaType string
	Data      []byte
}

// DataURL renders an image part as a base64 data URL
func (p ContentPart) DataURL() string {
	return "data:" + p.MediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Message is a role-tagged list of content parts
type Message struct {
	Role  Role
	Parts []ContentPart
}

// Text concatenates the text parts of the message
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// HasImages reports whether any part carries image data
func (m Message) HasImages() bool {
	for _, p := range m.Parts {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// CompletionRequest is one call to a completion provider
type CompletionRequest struct {
	// Model is the provider-qualified model identifier, e.g. "openai/gpt-4o-mini"
	Model    string
	Provider string
	Messages []Message
}

// SystemPrompt returns the text of the first system message
func (r *CompletionRequest) SystemPrompt() string {
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			return m.Text()
		}
	}
	return ""
}

// Conversation returns every non-system message in order
func (r *CompletionRequest) Conversation() []Message {
	msgs := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// ModelName strips the provider segment from a "provider/model" identifier
func ModelName(model string) string {
	if _, name, found := strings.Cut(model, "/"); found {
		return name
	}
	return model
}

// ReplyEnvelope is a fully built outbound reply
type ReplyEnvelope struct {
	From       string
	FromName   string
	ReplyTo    string
	To         []string
	Cc         []string
	Subject    string
	Body       string
	InReplyTo  string
	References string
	Headers    map[string]string
}

// DispatchResult is what the outbound transport reports for a send
type DispatchResult struct {
	StatusCode int
	MessageID  string
}

// OutcomeStatus describes how a processed email ended
type OutcomeStatus int

const (
	OutcomeSent OutcomeStatus = iota
	OutcomeNoReply
	OutcomeLooping
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSent:
		return "sent"
	case OutcomeNoReply:
		return "no_reply"
	case OutcomeLooping:
		return "looping"
	default:
		return "unknown"
	}
}

// Outcome is the successful result of processing an inbound email
type Outcome struct {
	Status     OutcomeStatus
	Message    string
	Selection  Selection
	Reply      string
	Envelope   *ReplyEnvelope
	StatusCode int
}
