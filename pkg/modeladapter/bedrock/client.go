// Package bedrock binds the Validator role (spec.md §4.3) to AWS Bedrock's
// Converse API, grounded on the teacher's ai/providers/bedrock/client.go
// but using the real aws-sdk-go-v2 bedrockruntime service client directly
// rather than the teacher's build-tag-gated hand rolled variant.
package bedrock

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/sony/gobreaker"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/pkg/modeladapter"
)

// Config holds construction parameters for Client.
type Config struct {
	AWSConfig   aws.Config
	ModelID     string
	MaxTokens   int32
	Temperature float32
	Logger      logger.Logger
}

// Client is the Validator-bound Model Adapter implementation.
type Client struct {
	runtime     *bedrockruntime.Client
	modelID     string
	maxTokens   int32
	temperature float32
	breaker     *gobreaker.CircuitBreaker
	logger      logger.Logger
}

// New constructs a Validator client with its own circuit breaker.
func New(cfg Config) *Client {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NoOp{}
	}

	breakerSettings := gobreaker.Settings{
		Name:        "validator",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &Client{
		runtime:     bedrockruntime.NewFromConfig(cfg.AWSConfig),
		modelID:     cfg.ModelID,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		breaker:     gobreaker.NewCircuitBreaker(breakerSettings),
		logger:      log,
	}
}

// Role identifies this client as the Validator binding.
func (c *Client) Role() modeladapter.Role { return modeladapter.RoleValidator }

// Call issues a single Converse request through the breaker. The
// Validator has no fallback provider, so its failure is always fatal to
// the attempt; block assembly and the validation gate run after it.
func (c *Client) Call(ctx context.Context, req modeladapter.Request) (*modeladapter.Response, error) {
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		input := &bedrockruntime.ConverseInput{
			ModelId: aws.String(c.modelID),
			Messages: []types.Message{
				{
					Role: types.ConversationRoleUser,
					Content: []types.ContentBlock{
						&types.ContentBlockMemberText{Value: req.User},
					},
				},
			},
			InferenceConfig: &types.InferenceConfiguration{
				MaxTokens:   aws.Int32(c.maxTokens),
				Temperature: aws.Float32(c.temperature),
			},
		}
		if req.System != "" {
			input.System = []types.SystemContentBlock{
				&types.SystemContentBlockMemberText{Value: req.System},
			}
		}
		return c.runtime.Converse(ctx, input)
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		c.logger.Error("validator call failed", map[string]interface{}{"error": err.Error(), "latency_ms": latency})
		return nil, modeladapter.WrapRoleError(modeladapter.RoleValidator, "bedrock.call", err)
	}

	out := result.(*bedrockruntime.ConverseOutput)
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, modeladapter.WrapRoleError(modeladapter.RoleValidator, "bedrock.call", fmt.Errorf("unexpected converse output shape"))
	}

	var text string
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			text += tb.Value
		}
	}

	var usage modeladapter.Usage
	if out.Usage != nil {
		usage = modeladapter.Usage{
			PromptTokens:     int(aws.ToInt32(out.Usage.InputTokens)),
			CompletionTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}

	c.logger.Debug("validator call succeeded", map[string]interface{}{"model": c.modelID, "latency_ms": latency})

	return &modeladapter.Response{
		Text:      text,
		ModelID:   c.modelID,
		Usage:     usage,
		LatencyMS: latency,
	}, nil
}
