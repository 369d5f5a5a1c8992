package planner

import (
	"encoding/json"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/model"
	"smartcommit/internal/types"
)

// rawGroup is a commit group as the model proposes it, before validation.
type rawGroup struct {
	Type         string   `json:"type"`
	Scope        string   `json:"scope,omitempty"`
	Message      string   `json:"message"`
	Body         string   `json:"body,omitempty"`
	Breaking     bool     `json:"breaking,omitempty"`
	BreakingNote string   `json:"breaking_note,omitempty"`
	Files        []string `json:"files"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// assignment extends an existing group by id during reconciliation.
type assignment struct {
	GroupID string   `json:"group_id"`
	Files   []string `json:"files"`
}

// planResponse is the parsed shape of every model reply: proposed groups,
// optional context escalation, and reconciliation assignments.
type planResponse struct {
	Groups []rawGroup `json:"groups"`
	// NeedContext asks for phase 2; RequestFiles names the diffs wanted.
	NeedContext  bool         `json:"need_context,omitempty"`
	RequestFiles []string     `json:"request_files,omitempty"`
	Assign       []assignment `json:"assign,omitempty"`
}

const proposeToolName = "propose_commit_plan"

// planTools declares the structured calling convention. The schema mirrors
// planResponse so tool input validates into the same type.
func planTools() []types.ToolDefinition {
	groupSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":          map[string]any{"type": "string", "enum": []string{"feat", "fix", "docs", "refactor", "test", "chore", "perf", "ci", "build"}},
			"scope":         map[string]any{"type": "string"},
			"message":       map[string]any{"type": "string"},
			"body":          map[string]any{"type": "string"},
			"breaking":      map[string]any{"type": "boolean"},
			"breaking_note": map[string]any{"type": "string"},
			"files":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"confidence":    map[string]any{"type": "number"},
			"reasoning":     map[string]any{"type": "string"},
		},
		"required": []string{"type", "message", "files", "confidence"},
	}
	return []types.ToolDefinition{{
		Name:        proposeToolName,
		Description: "Propose commit groups for the changed files, or request file diffs for more context.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"groups":        map[string]any{"type": "array", "items": groupSchema},
				"need_context":  map[string]any{"type": "boolean"},
				"request_files": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"assign": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"group_id": map[string]any{"type": "string"},
							"files":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						},
						"required": []string{"group_id", "files"},
					},
				},
			},
		},
	}}
}

// parsePlanResponse prefers a schema-validated tool call; a text-only reply
// is parsed as fence-tolerant JSON. Either path failing is a malformed-output
// error, which the retry layer is allowed to retry.
func parsePlanResponse(resp *types.ToolResponse) (*planResponse, error) {
	for _, call := range resp.ToolCalls {
		if call.Name != proposeToolName {
			continue
		}
		return validateToolInput(call.Input)
	}

	if resp.Text == "" {
		return nil, scerrors.NewMalformed("model returned neither tool call nor text")
	}
	var out planResponse
	if err := model.Unmarshal(resp.Text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// validateToolInput round-trips the loose argument map through JSON into the
// typed response. Unknown shapes or wrong value types fail as malformed
// output rather than being cast through.
func validateToolInput(input map[string]any) (*planResponse, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, scerrors.NewMalformed("encode tool input: %v", err)
	}
	var out planResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, scerrors.NewMalformed("tool input does not match schema: %v", err)
	}
	for _, g := range out.Groups {
		if g.Message == "" || len(g.Files) == 0 {
			return nil, scerrors.NewMalformed("tool input group missing message or files")
		}
	}
	return &out, nil
}
