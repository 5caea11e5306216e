package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of provider call being made.
type TaskType string

const (
	TaskClarify TaskType = "clarify"
	TaskFinal   TaskType = "final"
	TaskEdit    TaskType = "edit"
)

// TaskConfig holds per-task call parameters.
type TaskConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"` // overrides global if > 0
}

// Config holds all configuration for the provider client.
type Config struct {
	BaseURL       string                  `yaml:"base_url"`
	APIKey        string                  `yaml:"api_key"`
	StandardModel string                  `yaml:"standard_model"`
	PremiumModel  string                  `yaml:"premium_model"`
	TimeoutMs     int                     `yaml:"timeout_ms"`
	MaxRetries    int                     `yaml:"max_retries"`
	Tasks         map[TaskType]TaskConfig `yaml:"tasks"`
}

// DefaultConfig returns a Config pointed at the public OpenAI endpoint.
// The API key is left empty.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://api.openai.com/v1/",
		StandardModel: "gpt-4o-mini",
		PremiumModel:  "gpt-4o",
		TimeoutMs:     20000,
		MaxRetries:    1,
		Tasks: map[TaskType]TaskConfig{
			TaskClarify: {Temperature: 0.4, MaxTokens: 800, TimeoutMs: 15000},
			TaskFinal:   {Temperature: 0.3, MaxTokens: 2400, TimeoutMs: 45000},
			TaskEdit:    {Temperature: 0.2, MaxTokens: 2400, TimeoutMs: 30000},
		},
	}
}

// LoadConfig reads provider configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overlays PROMPTFORGE_LLM_* variables onto cfg. OPENAI_API_KEY is
// used when no prefixed key is set.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("PROMPTFORGE_LLM_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("PROMPTFORGE_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.APIKey == "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("PROMPTFORGE_LLM_MODEL"); v != "" {
		cfg.StandardModel = v
	}
	if v := os.Getenv("PROMPTFORGE_LLM_PREMIUM_MODEL"); v != "" {
		cfg.PremiumModel = v
	}
	if v := os.Getenv("PROMPTFORGE_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("PROMPTFORGE_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}

	applyTaskTimeoutEnv(cfg, TaskClarify, "PROMPTFORGE_LLM_CLARIFY_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskFinal, "PROMPTFORGE_LLM_FINAL_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskEdit, "PROMPTFORGE_LLM_EDIT_TIMEOUT_MS")
}

// TaskTimeout returns the effective timeout for a given task type.
func (c Config) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

// Model returns the model name for the premium or standard variant.
func (c Config) Model(premium bool) string {
	if premium && c.PremiumModel != "" {
		return c.PremiumModel
	}
	return c.StandardModel
}

func applyTaskTimeoutEnv(cfg *Config, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	if cfg.Tasks == nil {
		cfg.Tasks = map[TaskType]TaskConfig{}
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
