package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PROMPTFORGE_MODE", "PROMPTFORGE_ALLOW_FALLBACK", "PROMPTFORGE_PREFERENCE_ORDER",
		"PROMPTFORGE_USER_RATE_LIMIT", "PROMPTFORGE_IP_RATE_LIMIT", "PROMPTFORGE_ADDR",
		"PROMPTFORGE_API_TOKEN", "PROMPTFORGE_API_USER", "PROMPTFORGE_DB", "PROMPTFORGE_USER",
		"PROMPTFORGE_USER_EMAIL", "PROMPTFORGE_LOG_LEVEL", "PROMPTFORGE_LLM_API_KEY",
		"PROMPTFORGE_LLM_MODEL", "OPENAI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, domain.ModeGuided, cfg.Flow.DefaultMode)
	assert.False(t, cfg.Flow.AllowFallback)
	assert.Equal(t, time.Second, cfg.Flow.DraftDebounce)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.StandardModel)
	assert.Equal(t, 20, cfg.Limits.Rate.UserPerWindow)
	assert.Nil(t, cfg.StartUser())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  standard_model: gpt-4.1-mini
  tasks:
    final:
      temperature: 0.5
      max_tokens: 1200
flow:
  default_mode: quick
  allow_fallback: true
  preference_order: [tone, language]
  draft_debounce: 250ms
limits:
  rate:
    window: 30s
    user_per_window: 5
    ip_per_window: 9
  quota:
    cycle: 168h
server:
  addr: 0.0.0.0:9000
  tokens:
    - token: secret
      user_id: u1
      email: u1@example.com
user:
  id: local
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.StandardModel)
	assert.Equal(t, "gpt-4o", cfg.LLM.PremiumModel, "unset keys keep defaults")
	assert.Equal(t, 0.5, cfg.LLM.Tasks[llm.TaskFinal].Temperature)
	assert.Equal(t, domain.ModeQuick, cfg.Flow.DefaultMode)
	assert.True(t, cfg.Flow.AllowFallback)
	assert.Equal(t, []domain.PreferenceKey{domain.PrefTone, domain.PrefLanguage}, cfg.Flow.PreferenceOrder)
	assert.Equal(t, 250*time.Millisecond, cfg.Flow.DraftDebounce)
	assert.Equal(t, 30*time.Second, cfg.Limits.Rate.Window)
	assert.Equal(t, 5, cfg.Limits.Rate.UserPerWindow)
	assert.Equal(t, 7*24*time.Hour, cfg.Limits.Quota.Cycle)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	require.NotNil(t, cfg.StartUser())
	assert.Equal(t, "local", cfg.StartUser().ID)

	u, ok := cfg.Tokens().Lookup("secret")
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)

	level, err := ParseLevel(cfg.Log.Level)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "flow:\n  default_mode: quick\nstorage:\n  db_path: /tmp/file.db\n")
	t.Setenv("PROMPTFORGE_MODE", "guided")
	t.Setenv("PROMPTFORGE_DB", "/tmp/env.db")
	t.Setenv("PROMPTFORGE_ALLOW_FALLBACK", "true")
	t.Setenv("PROMPTFORGE_USER_RATE_LIMIT", "3")
	t.Setenv("PROMPTFORGE_API_TOKEN", "tok")
	t.Setenv("PROMPTFORGE_LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeGuided, cfg.Flow.DefaultMode)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.DBPath)
	assert.True(t, cfg.Flow.AllowFallback)
	assert.Equal(t, 3, cfg.Limits.Rate.UserPerWindow)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)

	u, ok := cfg.Tokens().Lookup("tok")
	require.True(t, ok)
	assert.Equal(t, "api", u.ID)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown mode", "flow:\n  default_mode: turbo\n"},
		{"unknown preference key", "flow:\n  preference_order: [tone, mood]\n"},
		{"unknown log level", "log:\n  level: loud\n"},
		{"token without user", "server:\n  tokens:\n    - token: abc\n"},
		{"malformed yaml", "flow: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Flow.DefaultMode = domain.ModeQuick
	cfg.User.ID = "saved"
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeQuick, loaded.Flow.DefaultMode)
	assert.Equal(t, "saved", loaded.User.ID)
}
