package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
)

const anthropicVersion = "bedrock-2023-05-31"

// InvokeModelAPI is the subset of the Bedrock runtime client used here
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the CompletionClient interface using Amazon Bedrock
type BedrockClient struct {
	client        InvokeModelAPI
	maxTokens     int
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client InvokeModelAPI,
	maxTokens int,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		maxTokens:     maxTokens,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// UsesAmbientCredentials reports that the AWS credential chain authenticates calls
func (c *BedrockClient) UsesAmbientCredentials() bool {
	return true
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

// Complete invokes the model. The API key is ignored.
func (c *BedrockClient) Complete(ctx context.Context, _ string, req *core.CompletionRequest) (string, error) {
	modelID := core.ModelName(req.Model)

	var payload []byte
	var err error
	if isAmazonTitanModel(modelID) {
		payload, err = c.titanPayload(req)
	} else {
		payload, err = json.Marshal(c.anthropicPayload(req))
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var text string
	if isAmazonTitanModel(modelID) {
		text, err = parseTitanResponse(resp.Body)
	} else {
		text, err = parseAnthropicResponse(resp.Body)
	}
	if err != nil {
		return "", err
	}

	c.logger.Debug("Bedrock invocation finished", zap.String("model", modelID), zap.Int("length", len(text)))
	return text, nil
}

func (c *BedrockClient) anthropicPayload(req *core.CompletionRequest) anthropicRequest {
	out := anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		System:           req.SystemPrompt(),
	}
	for _, m := range req.Conversation() {
		msg := anthropicMessage{Role: "user"}
		for _, p := range m.Parts {
			switch p.Type {
			case core.PartText:
				msg.Content = append(msg.Content, anthropicContent{Type: "text", Text: c.text(p.Text)})
			case core.PartImage:
				msg.Content = append(msg.Content, anthropicContent{
					Type: "image",
					Source: &anthropicSource{
						Type:      "base64",
						MediaType: p.MediaType,
						Data:      base64.StdEncoding.EncodeToString(p.Data),
					},
				})
			}
		}
		out.Messages = append(out.Messages, msg)
	}
	return out
}

// titanPayload sends text only, Titan text models take no images
func (c *BedrockClient) titanPayload(req *core.CompletionRequest) ([]byte, error) {
	var user []string
	for _, m := range req.Conversation() {
		user = append(user, c.text(m.Text()))
	}
	prompt := req.SystemPrompt() + "\n\n" + strings.Join(user, "\n")

	return json.Marshal(map[string]interface{}{
		"inputText": prompt,
		"textGenerationConfig": map[string]interface{}{
			"maxTokenCount": c.maxTokens,
		},
	})
}

func (c *BedrockClient) text(text string) string {
	if c.textProcessor == nil {
		return text
	}
	return c.textProcessor.ProcessText(text, c.maxBodySize)
}

func parseAnthropicResponse(body []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude model")
	}
	return b.String(), nil
}

func parseTitanResponse(body []byte) (string, error) {
	var resp struct {
		Results []struct {
			OutputText string `json:"outputText"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("empty response from Titan model")
	}
	return resp.Results[0].OutputText, nil
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func isAmazonTitanModel(modelID string) bool {
	return strings.HasPrefix(modelID, "amazon.titan")
}
