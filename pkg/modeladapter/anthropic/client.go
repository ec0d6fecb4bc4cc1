// Package anthropic binds the Strategist role (spec.md §4.3) to Anthropic's
// native Messages API via the official SDK, grounded on the teacher's
// hand-rolled anthropic provider (ai/providers/anthropic/client.go) but
// using the real SDK instead of a bespoke HTTP client.
package anthropic

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/pkg/modeladapter"
)

// Client is the Strategist-bound Model Adapter implementation.
type Client struct {
	sdk         anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	breaker     *gobreaker.CircuitBreaker
	logger      logger.Logger
}

// Config holds the construction parameters for Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
	Logger      logger.Logger
}

// New constructs a Strategist client wrapped in its own circuit breaker,
// isolated from the Planner and Validator breakers (spec.md §4.3: "each
// provider family fails independently").
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NoOp{}
	}

	breakerSettings := gobreaker.Settings{
		Name:        "strategist",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &Client{
		sdk:         anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		breaker:     gobreaker.NewCircuitBreaker(breakerSettings),
		logger:      log,
	}
}

// Role identifies this client as the Strategist binding.
func (c *Client) Role() modeladapter.Role { return modeladapter.RoleStrategist }

// Call issues a single Messages.New request through the breaker.
func (c *Client) Call(ctx context.Context, req modeladapter.Request) (*modeladapter.Response, error) {
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: c.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
			},
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}
		return c.sdk.Messages.New(ctx, params)
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		c.logger.Error("strategist call failed", map[string]interface{}{"error": err.Error(), "latency_ms": latency})
		return nil, modeladapter.WrapRoleError(modeladapter.RoleStrategist, "anthropic.call", err)
	}

	msg := result.(*anthropic.Message)
	if err := modeladapter.CheckModel("anthropic.call", c.model, string(msg.Model)); err != nil {
		return nil, err
	}

	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}

	c.logger.Debug("strategist call succeeded", map[string]interface{}{
		"model":      string(msg.Model),
		"latency_ms": latency,
	})

	return &modeladapter.Response{
		Text:    text,
		ModelID: string(msg.Model),
		Usage: modeladapter.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		LatencyMS: latency,
	}, nil
}
