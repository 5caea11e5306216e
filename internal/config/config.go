// Package config loads promptforge settings: built-in defaults, then an
// optional YAML file, then PROMPTFORGE_* environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/llm"
	"github.com/alexanderramin/promptforge/internal/quota"
	"github.com/alexanderramin/promptforge/internal/ratelimit"
)

// Config is the full application configuration.
type Config struct {
	LLM     llm.Config    `yaml:"llm"`
	Flow    FlowConfig    `yaml:"flow"`
	Limits  LimitsConfig  `yaml:"limits"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	User    UserConfig    `yaml:"user"`
	Log     LogConfig     `yaml:"log"`
}

// FlowConfig shapes the conversation.
type FlowConfig struct {
	DefaultMode     domain.Mode            `yaml:"default_mode"`
	PreferenceOrder []domain.PreferenceKey `yaml:"preference_order"`
	// AllowFallback lets the fixed question set stand in when the provider
	// fails. Leave it off in production.
	AllowFallback bool          `yaml:"allow_fallback"`
	DraftDebounce time.Duration `yaml:"draft_debounce"`
}

// LimitsConfig holds the rate buckets and the quota ledger settings.
type LimitsConfig struct {
	Rate  ratelimit.Config `yaml:"rate"`
	Quota quota.Config     `yaml:"quota"`
}

// TokenConfig maps one API bearer token to a user.
type TokenConfig struct {
	Token  string `yaml:"token"`
	UserID string `yaml:"user_id"`
	Email  string `yaml:"email,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Tokens          []TokenConfig `yaml:"tokens"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig locates the database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// UserConfig is the identity the CLI starts with. An empty ID starts signed
// out.
type UserConfig struct {
	ID    string `yaml:"id"`
	Email string `yaml:"email"`
}

// LogConfig sets the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LLM: llm.DefaultConfig(),
		Flow: FlowConfig{
			DefaultMode:   domain.ModeGuided,
			DraftDebounce: time.Second,
		},
		Limits: LimitsConfig{
			Rate:  ratelimit.DefaultConfig(),
			Quota: quota.DefaultConfig(),
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{DBPath: DefaultDBPath()},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultDir is ~/.promptforge, or ./.promptforge when the home directory
// is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptforge"
	}
	return filepath.Join(home, ".promptforge")
}

// DefaultDBPath is the database inside DefaultDir.
func DefaultDBPath() string {
	return filepath.Join(DefaultDir(), "promptforge.db")
}

// DefaultPath is the config file inside DefaultDir.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the program cannot work with and
// normalizes preference key spelling.
func (c *Config) Validate() error {
	switch c.Flow.DefaultMode {
	case domain.ModeQuick, domain.ModeGuided:
	default:
		return fmt.Errorf("flow.default_mode: unknown mode %q", c.Flow.DefaultMode)
	}
	for i, k := range c.Flow.PreferenceOrder {
		key, err := domain.ParsePreferenceKey(string(k))
		if err != nil {
			return fmt.Errorf("flow.preference_order: %w", err)
		}
		c.Flow.PreferenceOrder[i] = key
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for i, t := range c.Server.Tokens {
		if t.Token == "" || t.UserID == "" {
			return fmt.Errorf("server.tokens[%d]: token and user_id are required", i)
		}
	}
	return nil
}

// Tokens builds the bearer-token table for the HTTP API.
func (c *Config) Tokens() *auth.TokenTable {
	m := make(map[string]auth.User, len(c.Server.Tokens))
	for _, t := range c.Server.Tokens {
		m[t.Token] = auth.User{ID: t.UserID, Email: t.Email}
	}
	return auth.NewTokenTable(m)
}

// StartUser returns the configured CLI identity, or nil when signed out.
func (c *Config) StartUser() *auth.User {
	if c.User.ID == "" {
		return nil
	}
	return &auth.User{ID: c.User.ID, Email: c.User.Email}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level: unknown level %q", s)
}

func (c *Config) applyEnv() {
	llm.ApplyEnv(&c.LLM)

	if v := os.Getenv("PROMPTFORGE_MODE"); v != "" {
		c.Flow.DefaultMode = domain.Mode(strings.ToLower(v))
	}
	if v := os.Getenv("PROMPTFORGE_ALLOW_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Flow.AllowFallback = b
		}
	}
	if v := os.Getenv("PROMPTFORGE_PREFERENCE_ORDER"); v != "" {
		var keys []domain.PreferenceKey
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				keys = append(keys, domain.PreferenceKey(part))
			}
		}
		c.Flow.PreferenceOrder = keys
	}
	if v := os.Getenv("PROMPTFORGE_USER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Limits.Rate.UserPerWindow = n
		}
	}
	if v := os.Getenv("PROMPTFORGE_IP_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Limits.Rate.IPPerWindow = n
		}
	}
	if v := os.Getenv("PROMPTFORGE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PROMPTFORGE_API_TOKEN"); v != "" {
		user := os.Getenv("PROMPTFORGE_API_USER")
		if user == "" {
			user = "api"
		}
		c.Server.Tokens = append(c.Server.Tokens, TokenConfig{Token: v, UserID: user})
	}
	if v := os.Getenv("PROMPTFORGE_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("PROMPTFORGE_USER"); v != "" {
		c.User.ID = v
	}
	if v := os.Getenv("PROMPTFORGE_USER_EMAIL"); v != "" {
		c.User.Email = v
	}
	if v := os.Getenv("PROMPTFORGE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
