package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-mail-agent/internal/address"
	"go.uber.org/zap"
)

// AgentSettings carries the configuration the reply service needs
type AgentSettings struct {
	Name          string
	SystemPrompt  string
	MaxImageBytes int
	// Clock defaults to time.Now
	Clock func() time.Time
}

// ReplyService receives inbound emails, asks the persona's model for a
// reply and sends it back into the thread
type ReplyService struct {
	providers   ProviderSet
	credentials *Credentials
	mailer      MailSender
	policy      SenderPolicy
	personas    PersonaSelector
	settings    AgentSettings
	logger      *zap.Logger
}

// NewReplyService creates a new reply service
func NewReplyService(
	providers ProviderSet,
	credentials *Credentials,
	mailer MailSender,
	policy SenderPolicy,
	personas PersonaSelector,
	settings AgentSettings,
	logger *zap.Logger,
) *ReplyService {
	if settings.Clock == nil {
		settings.Clock = time.Now
	}
	return &ReplyService{
		providers:   providers,
		credentials: credentials,
		mailer:      mailer,
		policy:      policy,
		personas:    personas,
		settings:    settings,
		logger:      logger,
	}
}

// Process runs one inbound email through validation, persona selection,
// completion and dispatch. Any failure is a *ProcessingError; a panic in a
// collaborator becomes KindUnexpected.
func (s *ReplyService) Process(ctx context.Context, msg *InboundMessage) (outcome *Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Panic while processing email", zap.Any("panic", rec), zap.Stack("stack"))
			outcome = nil
			err = NewError(KindUnexpected, "Error processing email", fmt.Errorf("%v", rec))
		}
	}()
	return s.process(ctx, msg)
}

func (s *ReplyService) process(ctx context.Context, msg *InboundMessage) (*Outcome, error) {
	sender := strings.ToLower(address.ExtractEmail(msg.From))
	if !s.policy.IsWhitelisted(sender) {
		s.logger.Info("Rejected email from non-whitelisted sender", zap.String("sender", sender))
		return nil, NewError(KindNotWhitelisted, "Sender email not whitelisted", nil)
	}

	to := address.SplitAddressList(msg.To)
	cc := address.SplitAddressList(msg.Cc)

	selection, ok := s.personas.Select(append(append([]string(nil), to...), cc...))
	if !ok {
		return nil, NewError(KindMalformed, "No recipient addresses", nil)
	}

	s.logger.Debug("Processing email",
		zap.String("from", msg.From),
		zap.Strings("to", to),
		zap.Strings("cc", cc),
		zap.String("agent_address", selection.Address),
		zap.String("persona", selection.Persona.Key),
		zap.Bool("persona_matched", selection.Matched),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))

	reply, err := s.complete(ctx, msg, selection)
	if err != nil {
		return nil, err
	}

	switch DetectSentinel(reply) {
	case SentinelFoundLooping:
		s.logger.Info("AI indicated looping conversation - stopping processing",
			zap.String("agent_address", selection.Address))
		return &Outcome{
			Status:    OutcomeLooping,
			Message:   "AI indicated looping conversation - stopping processing",
			Selection: selection,
			Reply:     reply,
		}, nil
	case SentinelFoundNoReply:
		s.logger.Info("AI indicated no reply needed - stopping processing",
			zap.String("agent_address", selection.Address))
		return &Outcome{
			Status:    OutcomeNoReply,
			Message:   "AI determined no reply was needed",
			Selection: selection,
			Reply:     reply,
		}, nil
	}

	env, err := s.BuildReply(msg, selection, reply, to, cc)
	if err != nil {
		return nil, err
	}

	result, err := s.mailer.Send(ctx, env)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.String("mailer", s.mailer.Name()),
			zap.Strings("to", env.To),
			zap.Error(err))
		return nil, NewError(KindDispatchFailed, "Failed to send email", err)
	}

	s.logger.Info("Email response sent successfully",
		zap.String("mailer", s.mailer.Name()),
		zap.String("from", env.From),
		zap.Strings("to", env.To),
		zap.Strings("cc", env.Cc),
		zap.Int("status_code", result.StatusCode))

	return &Outcome{
		Status:     OutcomeSent,
		Message:    "Email processed and response sent successfully",
		Selection:  selection,
		Reply:      reply,
		Envelope:   env,
		StatusCode: result.StatusCode,
	}, nil
}

// BuildReply assembles the outbound envelope for a non-suppressed reply
func (s *ReplyService) BuildReply(msg *InboundMessage, selection Selection, reply string, to, cc []string) (*ReplyEnvelope, error) {
	replyTo, replyCc := ReplyRecipients(msg.From, to, cc, selection.Address)
	if len(replyTo) == 0 {
		return nil, NewError(KindNoRecipients, "No valid recipient email addresses", nil)
	}

	env := &ReplyEnvelope{
		From:     selection.Address,
		FromName: selection.Persona.Name,
		ReplyTo:  selection.Address,
		To:       replyTo,
		Cc:       replyCc,
		Subject:  ReplySubject(msg.Subject),
		Body:     strings.TrimSpace(reply) + FormatQuotedReply(msg.Text, msg.From, s.settings.Clock()),
		Headers:  map[string]string{"X-Priority": "3"},
	}
	if id := strings.TrimSpace(msg.MessageID); id != "" {
		env.InReplyTo = id
	}
	env.References = msg.ThreadReferences()

	return env, nil
}

// BuildCompletionRequest assembles the system prompt and user message
func (s *ReplyService) BuildCompletionRequest(msg *InboundMessage, selection Selection) *CompletionRequest {
	system := BuildSystemPrompt(PromptParams{
		Subject:      msg.Subject,
		Address:      selection.Address,
		AgentName:    s.settings.Name,
		Instructions: s.settings.SystemPrompt,
		Date:         s.settings.Clock(),
	})

	user := Message{Role: RoleUser}
	text := msg.Text
	if len(msg.Attachments) > 0 {
		images, notes := ProcessAttachments(msg.Attachments, s.settings.MaxImageBytes, s.logger)
		text += notes
		user.Parts = append(user.Parts, ContentPart{Type: PartText, Text: text})
		user.Parts = append(user.Parts, images...)
	} else {
		user.Parts = []ContentPart{{Type: PartText, Text: text}}
	}

	return &CompletionRequest{
		Model:    selection.Persona.Model,
		Provider: selection.Persona.Provider,
		Messages: []Message{
			{Role: RoleSystem, Parts: []ContentPart{{Type: PartText, Text: system}}},
			user,
		},
	}
}

func (s *ReplyService) complete(ctx context.Context, msg *InboundMessage, selection Selection) (string, error) {
	req := s.BuildCompletionRequest(msg, selection)
	provider := req.Provider

	client, ok := s.providers[provider]
	if !ok {
		s.logger.Error("No completion client for provider", zap.String("provider", provider))
		return "", NewError(KindAuthConfig, fmt.Sprintf("No completion client configured for provider %s", provider), nil)
	}

	var apiKey string
	if ambient, ok := client.(AmbientCredentialClient); !ok || !ambient.UsesAmbientCredentials() {
		key, found := s.credentials.Resolve(provider)
		if !found {
			s.logger.Error("No API key found for provider", zap.String("provider", provider))
			return "", NewError(KindAuthConfig, fmt.Sprintf("No API key found for provider %s", provider), nil)
		}
		apiKey = key
	}

	s.logger.Debug("Making API call",
		zap.String("provider", provider),
		zap.String("model", req.Model),
		zap.Bool("multipart", len(req.Messages[1].Parts) > 1))

	reply, err := client.Complete(ctx, apiKey, req)
	if err != nil {
		s.logger.Error("Error in AI API call",
			zap.String("provider", provider),
			zap.String("model", req.Model),
			zap.Error(err))
		return "", NewError(KindCompletionFailed, "AI API error", err)
	}

	s.logger.Debug("API call successful", zap.String("model", req.Model), zap.String("reply", reply))
	return reply, nil
}
