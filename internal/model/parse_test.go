package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/types"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced json", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"bare fence", "```\n[1, 2]\n```", `[1, 2]`},
		{"prose around object", `Sure! {"groups": []} hope that helps`, `{"groups": []}`},
		{"braces inside strings", `{"msg": "use {x} here"}`, `{"msg": "use {x} here"}`},
		{"nested objects", `{"a": {"b": {"c": 1}}}`, `{"a": {"b": {"c": 1}}}`},
		{"no json", "I cannot answer that.", ""},
		{"unterminated", `{"a": 1`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.in))
		})
	}
}

func TestUnmarshal(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var out struct {
			A int `json:"a"`
		}
		require.NoError(t, Unmarshal("```json\n{\"a\": 7}\n```", &out))
		assert.Equal(t, 7, out.A)
	})

	t.Run("no json is malformed", func(t *testing.T) {
		var out map[string]any
		err := Unmarshal("nothing here", &out)
		require.Error(t, err)
		var me *scerrors.ModelError
		require.True(t, scerrors.As(err, &me))
		assert.Equal(t, scerrors.ModelMalformed, me.Kind)
	})
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(1))
	assert.Equal(t, 2*time.Second, Backoff(2))
	assert.Equal(t, 4*time.Second, Backoff(3))
	assert.Equal(t, time.Second, Backoff(0))
}

func TestDoRethrowsSecretsImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), zap.NewNop(), 3, func(ctx context.Context) (string, error) {
		calls++
		return "", scerrors.NewSecretsDetected([]types.SecretMatch{{File: ".env"}})
	})
	require.True(t, scerrors.IsSecretsDetected(err))
	assert.Equal(t, 1, calls, "secrets detection must not be retried")
}

func TestDoRetriesMalformedOutput(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), zap.NewNop(), 2, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", scerrors.NewMalformed("garbled")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), zap.NewNop(), 2, func(ctx context.Context) (string, error) {
		calls++
		return "", scerrors.NewModelError(scerrors.ModelRateLimited, scerrors.New("429"))
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	var me *scerrors.ModelError
	require.True(t, scerrors.As(err, &me))
	assert.Equal(t, scerrors.ModelRateLimited, me.Kind)
}
