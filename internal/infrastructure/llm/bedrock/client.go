// Package bedrock adapts the AWS Bedrock Runtime Converse API to the
// pipeline's VisionInvoker port. The adapter performs exactly one
// network call per Invoke and carries no decision logic; escalation and
// retry policy live in the controllers above it.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"golang.org/x/time/rate"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// converseAPI is the slice of the Bedrock Runtime client the adapter
// needs; tests substitute a fake.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// ModelSettings pins one tier's model identity and inference knobs.
type ModelSettings struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
}

type Config struct {
	Models map[domain.ModelTier]ModelSettings
	// RequestsPerSecond throttles outbound inference calls across both
	// tiers. Zero disables throttling.
	RequestsPerSecond float64
}

type Client struct {
	api     converseAPI
	cfg     Config
	limiter *rate.Limiter
}

func New(api *bedrockruntime.Client, cfg Config) *Client {
	return newWithAPI(api, cfg)
}

func newWithAPI(api converseAPI, cfg Config) *Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{api: api, cfg: cfg, limiter: limiter}
}

// Invoke sends one image+prompt request to the model tier's endpoint
// and returns the raw reply text with token usage. Endpoint errors come
// back as ErrInference with the upstream message; they are never
// retried here.
func (c *Client) Invoke(ctx context.Context, image []byte, prompt string, tier domain.ModelTier) (string, domain.TokenUsage, error) {
	if len(image) == 0 {
		return "", domain.TokenUsage{}, domain.WrapError(domain.ErrInvalidInput, "invoke", errors.New("empty image"))
	}
	if prompt == "" {
		return "", domain.TokenUsage{}, domain.WrapError(domain.ErrInvalidInput, "invoke", errors.New("empty prompt"))
	}
	settings, ok := c.cfg.Models[tier]
	if !ok {
		return "", domain.TokenUsage{}, domain.WrapError(domain.ErrInvalidInput, "invoke", fmt.Errorf("no model configured for tier %q", tier))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", domain.TokenUsage{}, fmt.Errorf("inference rate limit wait: %w", err)
		}
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(settings.ModelID),
		Messages: []types.Message{{
			Role: types.ConversationRoleUser,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberImage{Value: types.ImageBlock{
					Format: types.ImageFormatPng,
					Source: &types.ImageSourceMemberBytes{Value: image},
				}},
				&types.ContentBlockMemberText{Value: prompt},
			},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(settings.MaxTokens),
			Temperature: aws.Float32(settings.Temperature),
		},
	})
	if err != nil {
		return "", domain.TokenUsage{}, domain.WrapError(domain.ErrInference, "bedrock converse", err)
	}

	text, err := replyText(out)
	if err != nil {
		return "", domain.TokenUsage{}, domain.WrapError(domain.ErrInference, "bedrock converse", err)
	}

	usage := domain.TokenUsage{}
	if out.Usage != nil {
		usage.InputTokens = aws.ToInt32(out.Usage.InputTokens)
		usage.OutputTokens = aws.ToInt32(out.Usage.OutputTokens)
	}
	return text, usage, nil
}

func replyText(out *bedrockruntime.ConverseOutput) (string, error) {
	message, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("response carried no message output")
	}
	for _, block := range message.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}
	return "", errors.New("response carried no text content block")
}
