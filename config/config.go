// Package config manages configuration for the promptc compilation pipeline.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/promptc-ai/promptc/utils"
)

// RoleBinding ties an agent role to the provider and model that back it.
type RoleBinding struct {
	Provider string
	Model    string
}

type Config struct {
	// Role bindings. The Pilot always runs on the compilation target and
	// the Historian on the source model, so only the three reasoning
	// roles are bound here.
	DecompilerProvider string `env:"PROMPTC_DECOMPILER_PROVIDER" envDefault:"gemini" validate:"required"`
	DecompilerModel    string `env:"PROMPTC_DECOMPILER_MODEL" envDefault:"gemini-2.5-pro" validate:"required"`
	ArchitectProvider  string `env:"PROMPTC_ARCHITECT_PROVIDER" envDefault:"openai" validate:"required"`
	ArchitectModel     string `env:"PROMPTC_ARCHITECT_MODEL" envDefault:"gpt-4-turbo" validate:"required"`
	JudgeProvider      string `env:"PROMPTC_JUDGE_PROVIDER" envDefault:"openai" validate:"required"`
	JudgeModel         string `env:"PROMPTC_JUDGE_MODEL" envDefault:"gpt-4o" validate:"required"`

	// Compilation loop controls.
	MaxRetries        int     `env:"PROMPTC_MAX_RETRIES" envDefault:"3" validate:"min=1"`
	ScoreThreshold    float64 `env:"PROMPTC_SCORE_THRESHOLD" envDefault:"0.8" validate:"min=0,max=1"`
	EarlyStopPatience int     `env:"PROMPTC_EARLY_STOP_PATIENCE" envDefault:"1" validate:"min=0"`

	// Baseline and test-fly stages. Disabling them skips the Historian
	// and Pilot roles and scores candidates on mechanical criteria plus
	// the judge's reading of the candidate text alone.
	EnableBaseline bool `env:"PROMPTC_BASELINE" envDefault:"true"`
	EnablePilot    bool `env:"PROMPTC_PILOT" envDefault:"true"`

	// Transport controls for individual model calls.
	Temperature      float64       `env:"PROMPTC_TEMPERATURE" envDefault:"0.7"`
	MaxTokens        int           `env:"PROMPTC_MAX_TOKENS" envDefault:"2048"`
	Timeout          time.Duration `env:"PROMPTC_TIMEOUT" envDefault:"60s"`
	TransportRetries int           `env:"PROMPTC_TRANSPORT_RETRIES" envDefault:"2" validate:"min=0"`
	RetryDelay       time.Duration `env:"PROMPTC_RETRY_DELAY" envDefault:"2s"`

	LogLevel     utils.LogLevel `env:"PROMPTC_LOG_LEVEL" envDefault:"WARN"`
	APIKeys      map[string]string
	ExtraHeaders map[string]string
}

var validate = validator.New()

// LoadConfig builds a Config from the environment, harvesting provider API
// keys from any *_API_KEY variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	loadAPIKeys(cfg)
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// Validate checks loop controls and role bindings. It is called before any
// model call is made.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// NewConfig returns a Config with the same defaults the environment parser
// would produce, for callers that configure programmatically.
func NewConfig() *Config {
	return &Config{
		DecompilerProvider: "gemini",
		DecompilerModel:    "gemini-2.5-pro",
		ArchitectProvider:  "openai",
		ArchitectModel:     "gpt-4-turbo",
		JudgeProvider:      "openai",
		JudgeModel:         "gpt-4o",

		MaxRetries:        3,
		ScoreThreshold:    0.8,
		EarlyStopPatience: 1,
		EnableBaseline:    true,
		EnablePilot:       true,
		Temperature:       0.7,
		MaxTokens:         2048,
		Timeout:           60 * time.Second,
		TransportRetries:  2,
		RetryDelay:        2 * time.Second,
		LogLevel:          utils.LogLevelWarn,
		APIKeys:           make(map[string]string),
		ExtraHeaders:      make(map[string]string),
	}
}

type ConfigOption func(*Config)

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetScoreThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.ScoreThreshold = threshold
	}
}

func SetEarlyStopPatience(patience int) ConfigOption {
	return func(c *Config) {
		c.EarlyStopPatience = patience
	}
}

func SetDecompiler(provider, model string) ConfigOption {
	return func(c *Config) {
		c.DecompilerProvider = provider
		c.DecompilerModel = model
	}
}

func SetArchitect(provider, model string) ConfigOption {
	return func(c *Config) {
		c.ArchitectProvider = provider
		c.ArchitectModel = model
	}
}

func SetJudge(provider, model string) ConfigOption {
	return func(c *Config) {
		c.JudgeProvider = provider
		c.JudgeModel = model
	}
}

// DecompilerBinding returns the provider/model pair backing the Decompiler.
func (c *Config) DecompilerBinding() RoleBinding {
	return RoleBinding{Provider: c.DecompilerProvider, Model: c.DecompilerModel}
}

// ArchitectBinding returns the provider/model pair backing the Architect.
func (c *Config) ArchitectBinding() RoleBinding {
	return RoleBinding{Provider: c.ArchitectProvider, Model: c.ArchitectModel}
}

// JudgeBinding returns the provider/model pair backing the Judge.
func (c *Config) JudgeBinding() RoleBinding {
	return RoleBinding{Provider: c.JudgeProvider, Model: c.JudgeModel}
}

func SetBaseline(enabled bool) ConfigOption {
	return func(c *Config) {
		c.EnableBaseline = enabled
	}
}

func SetPilot(enabled bool) ConfigOption {
	return func(c *Config) {
		c.EnablePilot = enabled
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetAPIKey(provider, apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[provider] = apiKey
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetExtraHeaders(headers map[string]string) ConfigOption {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.ExtraHeaders[k] = v
		}
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
