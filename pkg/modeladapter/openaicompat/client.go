// Package openaicompat binds the Planner role (spec.md §4.3) to any
// OpenAI-compatible chat completions endpoint via a hand-rolled HTTP
// client, grounded directly on the teacher's
// ai/providers/openai/client.go and reasoning.go: reasoning-model request
// shaping (max_completion_tokens, no temperature, token multiplier) is
// adapted verbatim in spirit because the Planner is the role spec.md §4.3
// allows the longest budget for, which is exactly when a caller is most
// likely to point it at a reasoning model.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/xerrors"
	"github.com/ridewave/triad/pkg/modeladapter"
)

// reasoningModelPrefixes mirrors the teacher's reasoning model family list.
var reasoningModelPrefixes = []string{"gpt-5", "o1", "o3", "o4"}

// IsReasoningModel reports whether model requires max_completion_tokens
// request shaping instead of max_tokens/temperature.
func IsReasoningModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// DefaultReasoningTokenMultiplier scales max_completion_tokens up since
// chain-of-thought tokens count against the budget but aren't returned.
const DefaultReasoningTokenMultiplier = 5

// Config holds construction parameters for Client.
type Config struct {
	APIKey      string
	BaseURL     string // e.g. https://api.openai.com/v1 or a self-hosted gateway
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      logger.Logger
}

// Client is the Planner-bound Model Adapter implementation.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float32
	breaker     *gobreaker.CircuitBreaker
	logger      logger.Logger
}

// New constructs a Planner client with its own circuit breaker.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second // reasoning models run long
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NoOp{}
	}

	breakerSettings := gobreaker.Settings{
		Name:        "planner",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		breaker:     gobreaker.NewCircuitBreaker(breakerSettings),
		logger:      log,
	}
}

// Role identifies this client as the Planner binding.
func (c *Client) Role() modeladapter.Role { return modeladapter.RolePlanner }

type chatRequest struct {
	Model               string              `json:"model"`
	Messages            []map[string]string `json:"messages"`
	MaxTokens           int                 `json:"max_tokens,omitempty"`
	MaxCompletionTokens int                 `json:"max_completion_tokens,omitempty"`
	Temperature         float32             `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Call issues a single chat completion request through the breaker,
// reshaping the request body for reasoning models per spec.md §4.3
// ("planner_throttled" vs "planner_failed" is resolved from the HTTP
// status in classifyError).
func (c *Client) Call(ctx context.Context, req modeladapter.Request) (*modeladapter.Response, error) {
	start := time.Now()

	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.User})

	body := chatRequest{Model: c.model, Messages: messages}
	if IsReasoningModel(c.model) {
		body.MaxCompletionTokens = c.maxTokens * DefaultReasoningTokenMultiplier
	} else {
		body.MaxTokens = c.maxTokens
		body.Temperature = c.temperature
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, body)
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		c.logger.Error("planner call failed", map[string]interface{}{"error": err.Error(), "latency_ms": latency})
		return nil, classifyError(err)
	}

	resp := result.(*chatResponse)
	if err := modeladapter.CheckModel("openaicompat.call", c.model, resp.Model); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, modeladapter.WrapRoleError(modeladapter.RolePlanner, "openaicompat.call", fmt.Errorf("empty choices"))
	}

	c.logger.Debug("planner call succeeded", map[string]interface{}{"model": resp.Model, "latency_ms": latency})

	return &modeladapter.Response{
		Text:    resp.Choices[0].Message.Content,
		ModelID: resp.Model,
		Usage: modeladapter.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		LatencyMS: latency,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, body chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &throttledError{status: resp.StatusCode, body: string(raw)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("planner API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}

type throttledError struct {
	status int
	body   string
}

func (e *throttledError) Error() string {
	return fmt.Sprintf("planner API throttled (status %d): %s", e.status, e.body)
}

// classifyError distinguishes a throttling response (retryable,
// planner_throttled) from any other planner failure (planner_failed),
// per spec.md §7's error taxonomy.
func classifyError(err error) error {
	if _, ok := err.(*throttledError); ok {
		return xerrors.Wrap(xerrors.PlannerThrottled, "openaicompat.call", "planner rate limited", err)
	}
	return modeladapter.WrapRoleError(modeladapter.RolePlanner, "openaicompat.call", err)
}
