package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the CompletionClient interface for
// OpenAI and any provider exposing an OpenAI-compatible chat API
type OpenAIClient struct {
	provider      string
	baseURL       string
	maxBodySize   int
	httpClient    *http.Client
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI-compatible client. An empty baseURL
// uses the OpenAI endpoint.
func NewOpenAIClient(
	provider string,
	baseURL string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		provider:      provider,
		baseURL:       baseURL,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// WithHTTPClient sets the HTTP client used for API calls
func (c *OpenAIClient) WithHTTPClient(httpClient *http.Client) *OpenAIClient {
	c.httpClient = httpClient
	return c
}

// Complete sends the conversation to the chat completions endpoint
func (c *OpenAIClient) Complete(ctx context.Context, apiKey string, req *core.CompletionRequest) (string, error) {
	cfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	chatReq := openai.ChatCompletionRequest{
		Model:    core.ModelName(req.Model),
		Messages: c.buildMessages(req),
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with %s: %w", c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.provider)
	}

	c.logger.Debug("Chat completion finished",
		zap.String("provider", c.provider),
		zap.String("model", chatReq.Model),
		zap.String("id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) buildMessages(req *core.CompletionRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{Role: chatRole(m.Role)}

		// A lone text part is sent as plain content
		if len(m.Parts) == 1 && m.Parts[0].Type == core.PartText {
			msg.Content = c.text(m.Role, m.Parts[0].Text)
			msgs = append(msgs, msg)
			continue
		}

		for _, p := range m.Parts {
			switch p.Type {
			case core.PartText:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: c.text(m.Role, p.Text),
				})
			case core.PartImage:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    p.DataURL(),
						Detail: openai.ImageURLDetailAuto,
					},
				})
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// text applies the body size limit to user content
func (c *OpenAIClient) text(role core.Role, text string) string {
	if role != core.RoleUser || c.textProcessor == nil {
		return text
	}
	return c.textProcessor.ProcessText(text, c.maxBodySize)
}

func chatRole(role core.Role) string {
	if role == core.RoleSystem {
		return openai.ChatMessageRoleSystem
	}
	return openai.ChatMessageRoleUser
}
