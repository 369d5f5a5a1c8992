package model

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/types"
)

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultAnthropicConfig returns sensible defaults.
func DefaultAnthropicConfig(apiKey string) AnthropicConfig {
	return AnthropicConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.anthropic.com/v1",
		Model:   "claude-sonnet-4-20250514",
		Timeout: 120 * time.Second,
	}
}

// AnthropicClient implements Client against the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewAnthropicClient creates an Anthropic client, filling empty fields from
// the defaults.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	def := DefaultAnthropicConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &AnthropicClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the provider/model for plan metadata.
func (c *AnthropicClient) Name() string { return "anthropic:" + c.model }

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`
		ID    string         `json:"id"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *AnthropicClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.send(ctx, systemPrompt, userPrompt, nil)
	if err != nil {
		return "", err
	}
	var result strings.Builder
	for _, content := range resp.Content {
		if content.Type == "text" {
			result.WriteString(content.Text)
		}
	}
	return strings.TrimSpace(result.String()), nil
}

// CompleteWithTools sends a prompt with tool definitions and returns the
// structured response.
func (c *AnthropicClient) CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, tools []types.ToolDefinition) (*types.ToolResponse, error) {
	mapped := make([]anthropicTool, len(tools))
	for i, t := range tools {
		mapped[i] = anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	resp, err := c.send(ctx, systemPrompt, userPrompt, mapped)
	if err != nil {
		return nil, err
	}

	out := &types.ToolResponse{
		StopReason: resp.StopReason,
		Usage: types.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
	var text strings.Builder
	for _, content := range resp.Content {
		switch content.Type {
		case "text":
			text.WriteString(content.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, types.ToolCall{
				ID:    content.ID,
				Name:  content.Name,
				Input: content.Input,
			})
		}
	}
	out.Text = strings.TrimSpace(text.String())
	return out, nil
}

func (c *AnthropicClient) send(ctx context.Context, systemPrompt, userPrompt string, tools []anthropicTool) (*anthropicResponse, error) {
	if c.apiKey == "" {
		return nil, scerrors.NewModelError(scerrors.ModelNetwork, scerrors.New("API key not configured"))
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: 4096,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.1, // low temperature for structured output
		Tools:       tools,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, scerrors.NewModelError(scerrors.ModelMalformed, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, scerrors.NewModelError(scerrors.ModelNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, scerrors.NewModelError(classifyTransport(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, scerrors.NewModelError(scerrors.ModelNetwork, err)
	}

	if kind, failed := classifyStatus(resp.StatusCode); failed {
		return nil, scerrors.NewModelError(kind,
			scerrors.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, scerrors.NewModelError(scerrors.ModelMalformed, err)
	}
	if parsed.Error != nil {
		return nil, scerrors.NewModelError(scerrors.ModelServer,
			scerrors.Errorf("API error: %s", parsed.Error.Message))
	}
	if len(parsed.Content) == 0 {
		return nil, scerrors.NewMalformed("no completion returned")
	}
	return &parsed, nil
}

// classifyStatus maps an HTTP status to a failure kind; ok statuses return
// failed=false.
func classifyStatus(status int) (scerrors.ModelFailureKind, bool) {
	switch {
	case status == http.StatusOK:
		return "", false
	case status == http.StatusTooManyRequests:
		return scerrors.ModelRateLimited, true
	case status >= 500:
		return scerrors.ModelServer, true
	default:
		return scerrors.ModelMalformed, true
	}
}

// classifyTransport distinguishes timeouts from other network failures.
func classifyTransport(err error) scerrors.ModelFailureKind {
	var netErr net.Error
	if scerrors.As(err, &netErr) && netErr.Timeout() {
		return scerrors.ModelTimeout
	}
	if scerrors.Is(err, context.DeadlineExceeded) {
		return scerrors.ModelTimeout
	}
	return scerrors.ModelNetwork
}
