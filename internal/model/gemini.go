package model

import (
	"context"
	"strings"

	"google.golang.org/genai"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/types"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClient implements Client on top of the Google GenAI SDK. It serves
// the plain-text completion convention; tool-call requests degrade to a
// text-only response that callers parse with the fence-tolerant extractor.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, scerrors.New("Gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, scerrors.Wrap(err, "create genai client")
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Name identifies the provider/model for plan metadata.
func (c *GeminiClient) Name() string { return "gemini:" + c.model }

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", scerrors.NewModelError(classifyGenAI(err), err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", scerrors.NewMalformed("empty completion returned")
	}
	return text, nil
}

// CompleteWithTools degrades to a text-only response: Gemini function
// calling is not wired here, and the generator already tolerates providers
// that answer the tool convention with parseable text.
func (c *GeminiClient) CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, _ []types.ToolDefinition) (*types.ToolResponse, error) {
	text, err := c.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	return &types.ToolResponse{Text: text, StopReason: "end_turn"}, nil
}

// classifyGenAI maps SDK errors onto the failure taxonomy using the embedded
// HTTP status when available.
func classifyGenAI(err error) scerrors.ModelFailureKind {
	var apiErr genai.APIError
	if scerrors.As(err, &apiErr) {
		if kind, failed := classifyStatus(apiErr.Code); failed {
			return kind
		}
	}
	return classifyTransport(err)
}
