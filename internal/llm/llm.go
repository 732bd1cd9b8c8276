// Package llm implements the reasoning provider used by agent runs: an
// OpenAI-compatible chat-completions client carrying the function-calling
// wire format.
package llm

import (
	"errors"

	"quizagent/config"
	"quizagent/internal/agent"
)

// Client names a supported LLM backend.
type Client string

const (
	OpenAI Client = "openai"
)

// NewChatProvider builds the configured provider. Only OpenAI-compatible
// chat-completions backends are implemented; the base URL is configurable so
// any API-compatible server works.
func NewChatProvider(cfg config.LLMConfig) (agent.ChatProvider, error) {
	switch Client(cfg.Type) {
	case OpenAI, "":
		if cfg.APIKey == "" {
			return nil, errors.New("llm api key not configured (OPENAI_API_KEY)")
		}
		return NewOpenAIClient(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
			cfg.MaxRetries,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider: " + cfg.Type)
	}
}
