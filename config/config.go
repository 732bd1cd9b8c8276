// Package config loads application configuration from an optional config
// file plus environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Fallback credentials keep the agent usable in throwaway deployments where
// EMAIL/SECRET are not injected. Deliberately insecure convenience.
const (
	DefaultEmail  = "23f2005127@ds.study.iitm.ac.in"
	DefaultSecret = "AMAN@131004"
)

// Config holds all configuration for the agent system.
type Config struct {
	General     GeneralConfig     `mapstructure:"general"`
	Server      ServerConfig      `mapstructure:"server"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Tools       ToolsConfig       `mapstructure:"tools"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// CredentialsConfig carries the fixed quiz credentials injected into every
// submission.
type CredentialsConfig struct {
	Email  string `mapstructure:"email"`
	Secret string `mapstructure:"secret"`
}

// LLMConfig contains the reasoning/transcription provider settings.
type LLMConfig struct {
	Type               string        `mapstructure:"type"` // openai-compatible only
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Model              string        `mapstructure:"model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	Temperature        float64       `mapstructure:"temperature"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	MaxRetries         int           `mapstructure:"max_retries"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// AgentConfig contains control-loop limits.
type AgentConfig struct {
	MaxIterations int           `mapstructure:"max_iterations"`
	LLMInterval   time.Duration `mapstructure:"llm_interval"`
}

// ToolsConfig contains tool facade settings.
type ToolsConfig struct {
	RuntimeDir        string        `mapstructure:"runtime_dir"`
	PythonInterpreter string        `mapstructure:"python_interpreter"`
	CodeTimeout       time.Duration `mapstructure:"code_timeout"`
	DownloadRetries   int           `mapstructure:"download_retries"`
	DownloadTimeout   time.Duration `mapstructure:"download_timeout"`
	BrowseTimeout     time.Duration `mapstructure:"browse_timeout"`
	BrowseMaxChars    int           `mapstructure:"browse_max_chars"`
}

// LoadConfig reads configuration from path (or the working directory when
// empty) and applies QUIZAGENT_* plus legacy EMAIL/SECRET/OPENAI_API_KEY
// environment overrides. A missing config file is fine since defaults cover
// every key; malformed configuration panics, matching process-start fatality.
func LoadConfig(path string) *Config {
	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("credentials.email", DefaultEmail)
	viper.SetDefault("credentials.secret", DefaultSecret)
	viper.SetDefault("llm.type", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.transcription_model", "whisper-1")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.max_retries", 2)
	viper.SetDefault("llm.timeout", "120s")
	viper.SetDefault("agent.max_iterations", 5000)
	viper.SetDefault("agent.llm_interval", "60s")
	viper.SetDefault("tools.python_interpreter", "python3")
	viper.SetDefault("tools.code_timeout", "300s")
	viper.SetDefault("tools.download_retries", 3)
	viper.SetDefault("tools.download_timeout", "30s")
	viper.SetDefault("tools.browse_timeout", "15s")
	viper.SetDefault("tools.browse_max_chars", 20000)

	if path == "" {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("QUIZAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// Legacy env names take precedence; they are what deploy environments set.
	if v := os.Getenv("EMAIL"); v != "" {
		config.Credentials.Email = v
	}
	if v := os.Getenv("SECRET"); v != "" {
		config.Credentials.Secret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		config.LLM.APIKey = v
	}

	return &config
}
