package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/types"
)

func TestParsePlanResponseToolCall(t *testing.T) {
	resp := &types.ToolResponse{
		ToolCalls: []types.ToolCall{{
			Name: proposeToolName,
			Input: map[string]any{
				"groups": []any{map[string]any{
					"type": "fix", "message": "patch leak", "confidence": 0.8,
					"files": []any{"a.go"},
				}},
			},
		}},
	}
	out, err := parsePlanResponse(resp)
	require.NoError(t, err)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, "fix", out.Groups[0].Type)
	assert.Equal(t, []string{"a.go"}, out.Groups[0].Files)
}

func TestParsePlanResponseAssignToolCall(t *testing.T) {
	resp := &types.ToolResponse{
		ToolCalls: []types.ToolCall{{
			Name: proposeToolName,
			Input: map[string]any{
				"assign": []any{
					map[string]any{"group_id": "g1", "files": []any{"a.go", "b.go"}},
					map[string]any{"group_id": "g2", "files": []any{"c.go"}},
				},
			},
		}},
	}
	out, err := parsePlanResponse(resp)
	require.NoError(t, err)
	require.Len(t, out.Assign, 2)
	assert.Equal(t, "g1", out.Assign[0].GroupID)
	assert.Equal(t, []string{"a.go", "b.go"}, out.Assign[0].Files)
	assert.Equal(t, "g2", out.Assign[1].GroupID)
}

func TestPlanToolsAssignSchemaIsArray(t *testing.T) {
	tools := planTools()
	require.Len(t, tools, 1)
	props, ok := tools[0].InputSchema["properties"].(map[string]any)
	require.True(t, ok)
	assign, ok := props["assign"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", assign["type"])
	items, ok := assign["items"].(map[string]any)
	require.True(t, ok, "assign items must describe the per-group object")
	assert.Equal(t, "object", items["type"])
}

func TestParsePlanResponseInvalidToolInput(t *testing.T) {
	cases := []struct {
		name  string
		input map[string]any
	}{
		{"wrong value type", map[string]any{"groups": "not-a-list"}},
		{"group missing message", map[string]any{
			"groups": []any{map[string]any{"type": "fix", "files": []any{"a.go"}}},
		}},
		{"group missing files", map[string]any{
			"groups": []any{map[string]any{"type": "fix", "message": "x"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := &types.ToolResponse{
				ToolCalls: []types.ToolCall{{Name: proposeToolName, Input: tc.input}},
			}
			_, err := parsePlanResponse(resp)
			require.Error(t, err)
			var me *scerrors.ModelError
			require.True(t, scerrors.As(err, &me), "schema failure must classify as malformed")
			assert.Equal(t, scerrors.ModelMalformed, me.Kind)
		})
	}
}

func TestParsePlanResponseTextFallback(t *testing.T) {
	resp := &types.ToolResponse{
		Text: "Here is the plan:\n```json\n{\"groups\": [{\"type\": \"docs\", \"message\": \"expand readme\", \"confidence\": 0.9, \"files\": [\"README.md\"]}]}\n```",
	}
	out, err := parsePlanResponse(resp)
	require.NoError(t, err)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, "docs", out.Groups[0].Type)
}

func TestParsePlanResponseEmpty(t *testing.T) {
	_, err := parsePlanResponse(&types.ToolResponse{})
	require.Error(t, err)
	var me *scerrors.ModelError
	require.True(t, scerrors.As(err, &me))
	assert.Equal(t, scerrors.ModelMalformed, me.Kind)
}

func TestValidate(t *testing.T) {
	truth := []string{"a.go", "b.go", "c.go", "d.go"}
	groups := []types.CommitGroup{
		{ID: "g1", Files: []string{"a.go", "ghost.go"}},
		{ID: "g2", Files: []string{"a.go", "b.go"}},
		{ID: "g3", Files: []string{"ghost2.go"}},
	}

	kept, leftover := Validate(groups, truth, nil)
	require.Len(t, kept, 2)
	assert.Equal(t, []string{"a.go"}, kept[0].Files, "hallucinated file dropped")
	assert.Equal(t, []string{"b.go"}, kept[1].Files, "duplicate keeps first occurrence")
	assert.Equal(t, []string{"c.go", "d.go"}, leftover)
}
