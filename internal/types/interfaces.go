package types

import (
	"context"
)

// ModelClient defines the interface for LLM completion providers. Providers
// are external and possibly unreliable; callers layer retry and fallback on
// top of this interface.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// CompleteWithTools sends a prompt with tool definitions and returns the
	// response with tool calls. Providers that cannot do native tool calling
	// may return a text-only response.
	CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDefinition) (*ToolResponse, error)
	// Name identifies the provider/model for plan metadata.
	Name() string
}

// ToolDefinition describes a tool the model can invoke.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"` // JSON Schema for parameters
}

// ToolCall represents a tool invocation requested by the model. Input is the
// raw argument map; callers must validate it against an explicit schema
// before use, never cast unchecked.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// Usage captures token usage metrics from the model.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ToolResponse contains both text response and tool calls from the model.
type ToolResponse struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls"`
	StopReason string     `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

// Confirmer obtains a yes/no answer from the user. Non-interactive runs use
// an auto-confirm implementation.
type Confirmer interface {
	Confirm(prompt string) bool
}
