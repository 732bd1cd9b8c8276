package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizagent/internal/agent"
)

const defaultBaseURL = "https://api.openai.com/v1"

// openAIClient implements agent.ChatProvider against the chat-completions
// API with function calling.
type openAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	http        *HTTPClient
}

// chatMessage is one wire-format conversation entry.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string          `json:"type"`
	Function chatFunctionDef `json:"function"`
}

type chatFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a chat provider against an OpenAI-compatible API.
func NewOpenAIClient(apiKey, baseURL, model string, temperature float64, maxTokens int, timeout time.Duration, retries int) agent.ChatProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &openAIClient{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		http:        NewHTTPClient(timeout, retries, time.Second),
	}
}

// Chat sends the system prompt, the full turn history and the tool
// declarations, and maps the first choice back into an assistant turn.
func (c *openAIClient) Chat(ctx context.Context, system string, turns []agent.Turn, tools []agent.ToolSpec) (agent.Turn, error) {
	messages := make([]chatMessage, 0, len(turns)+1)
	messages = append(messages, chatMessage{Role: "system", Content: system})
	for _, turn := range turns {
		messages = append(messages, toWire(turn))
	}

	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Tools:       wireTools(tools),
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	var resp chatResponse
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/chat/completions", headers, req, &resp); err != nil {
		return agent.Turn{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agent.Turn{}, errors.New("chat completion: empty choices")
	}

	msg := resp.Choices[0].Message
	turn := agent.Turn{
		Role:    agent.RoleAssistant,
		Content: agent.TextContent(msg.Content),
	}
	for _, tc := range msg.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, agent.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return turn, nil
}

func toWire(turn agent.Turn) chatMessage {
	msg := chatMessage{
		Role:    string(turn.Role),
		Content: turn.Content.PrimaryText(),
	}
	switch turn.Role {
	case agent.RoleAssistant:
		for _, call := range turn.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, chatToolCall{
				ID:   call.ID,
				Type: "function",
				Function: chatFunction{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
	case agent.RoleTool:
		msg.ToolCallID = turn.ToolCallID
		msg.Name = turn.ToolName
	}
	return msg
}

func wireTools(specs []agent.ToolSpec) []chatTool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]chatTool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, chatTool{
			Type: "function",
			Function: chatFunctionDef{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  json.RawMessage(spec.Schema),
			},
		})
	}
	return tools
}
