package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "origin", cfg.Apply.Remote)
	assert.Equal(t, 120*time.Second, cfg.ModelTimeout())
	assert.False(t, cfg.HasModel())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	ws := t.TempDir()
	dir := filepath.Join(ws, ConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
model:
  provider: anthropic
  api_key: file-key
  timeout: 30s
apply:
  remote: upstream
  protected_branches: [staging]
`), 0o644))

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.True(t, cfg.HasModel())
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout())
	assert.Equal(t, "upstream", cfg.Apply.Remote)
	assert.Equal(t, []string{"staging"}, cfg.Apply.ProtectedBranches)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SMARTCOMMIT_MODEL", "claude-override")
	t.Setenv("SMARTCOMMIT_REMOTE", "fork")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "env-key", cfg.Model.APIKey)
	assert.Equal(t, "claude-override", cfg.Model.ModelName)
	assert.Equal(t, "fork", cfg.Apply.Remote)
}

func TestBadTimeoutFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Model.Timeout = "not-a-duration"
	assert.Equal(t, 120*time.Second, cfg.ModelTimeout())
}
