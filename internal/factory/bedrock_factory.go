package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-mail-agent/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
)

// BedrockFactory creates Bedrock completion clients
type BedrockFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockFactory creates a new Bedrock factory
func NewBedrockFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *BedrockFactory {
	return &BedrockFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a Bedrock client. Static credentials are used when
// configured, otherwise the default AWS chain.
func (f *BedrockFactory) CreateClient(ctx context.Context) (*bedrock.BedrockClient, error) {
	bedrockCfg := f.cfg.GetBedrock()
	llmCfg := f.cfg.GetLLM()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(bedrockCfg.Region),
	}
	if bedrockCfg.AccessKeyID != "" && bedrockCfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(bedrockCfg.AccessKeyID, bedrockCfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return bedrock.NewBedrockClient(
		bedrockruntime.NewFromConfig(awsCfg),
		llmCfg.MaxTokens,
		llmCfg.MaxBodySize,
		f.logger.With(zap.String("provider", "bedrock")),
		f.textProcessor,
	), nil
}
