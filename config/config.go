// Package config loads process configuration from defaults, an optional
// file and EDITAGENT_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "EDITAGENT"

type Config struct {
	Debug  bool         `mapstructure:"debug"`
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Prompt PromptConfig `mapstructure:"prompt"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// LLMConfig 生成模块的模型配置。
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	APIVersion        string        `mapstructure:"api_version"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxOutputTokens   int           `mapstructure:"max_output_tokens"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type PromptConfig struct {
	MaxParagraphs     int `mapstructure:"max_paragraphs"`
	MaxParagraphChars int `mapstructure:"max_paragraph_chars"`
	MaxSummaryChars   int `mapstructure:"max_summary_chars"`
}

// New returns a viper instance with defaults and environment bindings set.
// Callers may bind command-line flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("debug", false)
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "180s")
	v.SetDefault("server.max_body_bytes", 8<<20)
	v.SetDefault("llm.provider", "azure")
	v.SetDefault("llm.model", "gpt-5-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_version", "2024-08-01-preview")
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.max_output_tokens", 4000)
	v.SetDefault("llm.max_retries", 0)
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("prompt.max_paragraphs", 3)
	v.SetDefault("prompt.max_paragraph_chars", 200)
	v.SetDefault("prompt.max_summary_chars", 500)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// names used by earlier deployments
	_ = v.BindEnv("llm.base_url", EnvPrefix+"_LLM_BASE_URL", "AZURE_OPENAI_ENDPOINT_GPT5")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "AZURE_OPENAI_API_KEY_GPT5")
	return v
}

// Load reads the optional file at path into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if c.LLM.Provider == "" {
		return errors.New("llm.provider is required")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return errors.New("llm.max_output_tokens must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm.max_retries must not be negative")
	}
	if c.LLM.RequestsPerSecond < 0 {
		return errors.New("llm.requests_per_second must not be negative")
	}
	return nil
}
