package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the CompletionClient interface using Google Gemini
type GeminiClient struct {
	maxTokens     int
	maxBodySize   int
	options       []option.ClientOption
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client. Extra options are appended
// to the API key option on every call.
func NewGeminiClient(
	maxTokens int,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	opts ...option.ClientOption,
) *GeminiClient {
	return &GeminiClient{
		maxTokens:     maxTokens,
		maxBodySize:   maxBodySize,
		options:       opts,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Complete generates a reply with the Gemini API. The key is per request
// so the SDK client lives for one call only.
func (c *GeminiClient) Complete(ctx context.Context, apiKey string, req *core.CompletionRequest) (string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, c.options...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	modelName := core.ModelName(req.Model)
	model := client.GenerativeModel(modelName)
	if c.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.maxTokens))
	}
	if system := req.SystemPrompt(); system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, c.buildParts(req)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Gemini generation finished", zap.String("model", modelName), zap.Int("length", len(text)))
	return text, nil
}

// buildParts flattens the user conversation into Gemini parts
func (c *GeminiClient) buildParts(req *core.CompletionRequest) []genai.Part {
	var parts []genai.Part
	for _, m := range req.Conversation() {
		for _, p := range m.Parts {
			switch p.Type {
			case core.PartText:
				text := p.Text
				if c.textProcessor != nil {
					text = c.textProcessor.ProcessText(text, c.maxBodySize)
				}
				parts = append(parts, genai.Text(text))
			case core.PartImage:
				parts = append(parts, genai.Blob{MIMEType: p.MediaType, Data: p.Data})
			}
		}
	}
	return parts
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return b.String(), nil
}
