// Package agent implements the quiz-solving control loop: alternate model
// reasoning with tool execution over an append-only conversation until the
// model emits the completion token or the iteration ceiling trips.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"quizagent/internal/ratelimit"
)

// ErrIterationLimit is returned when a run exhausts its transition budget
// without reaching the completion token. It is the only safeguard against a
// model that chains URLs or tool calls forever.
var ErrIterationLimit = errors.New("iteration limit exceeded")

// DefaultMaxIterations bounds REASON+DISPATCH transitions per run.
const DefaultMaxIterations = 5000

const systemPromptFormat = `You are an autonomous quiz-solving agent.

Your responsibilities:
1. Load the quiz page from the provided URL.
2. Extract all instructions, required parameters, submission rules, and the submit endpoint.
3. Solve the task exactly as required.
4. Submit the answer to the endpoint explicitly given in the task.
5. Read server response and continue if a new URL is given.
6. Only output "END" when the server no longer gives a new URL.

RULES:
- Never guess URLs.
- Never shorten or modify URLs.
- Never stop until no new URL is provided.
- Use provided tools only.
- Follow instructions exactly.
- Every request with email/secret use:
  Email: %s
  Secret: %s

Output "END" only when the quiz is fully complete.`

// ToolSpec describes one tool as exposed to the model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      string // JSON schema for the arguments object
}

// ChatProvider is the external reasoning capability: one full-history call,
// one assistant turn back.
type ChatProvider interface {
	Chat(ctx context.Context, system string, turns []Turn, tools []ToolSpec) (Turn, error)
}

// ToolExecutor is the side-effecting surface available to the loop. Execute
// returns the tool's result content; a non-nil error is still recovered into
// a tool-result turn so the model can observe and react.
type ToolExecutor interface {
	Specs() []ToolSpec
	Execute(ctx context.Context, call ToolCall) (string, error)
}

// Telemetry receives loop-level events. Implementations must be safe for
// concurrent runs.
type Telemetry interface {
	RecordLLMCall()
	RecordToolCall(tool string, failed bool)
}

// Runner drives independent agent runs. Safe for concurrent use: runs share
// only the rate limiter.
type Runner struct {
	provider      ChatProvider
	tools         ToolExecutor
	limiter       *ratelimit.Limiter
	telemetry     Telemetry
	logger        *log.Logger
	maxIterations int
	systemPrompt  string
}

// NewRunner wires a runner from its collaborators. Email and secret are
// interpolated into the fixed system prompt so every submission carries the
// configured credentials. A nil telemetry is allowed.
func NewRunner(provider ChatProvider, tools ToolExecutor, limiter *ratelimit.Limiter, telemetry Telemetry, logger *log.Logger, maxIterations int, email, secret string) *Runner {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Runner{
		provider:      provider,
		tools:         tools,
		limiter:       limiter,
		telemetry:     telemetry,
		logger:        logger,
		maxIterations: maxIterations,
		systemPrompt:  fmt.Sprintf(systemPromptFormat, email, secret),
	}
}

// Run executes one full quiz chain starting from url. The returned
// conversation holds the complete turn log even when the run fails. Tool
// failures are folded into the log and the loop continues; provider failures
// and the iteration ceiling abort the run.
func (r *Runner) Run(ctx context.Context, url string) (*Conversation, error) {
	runID := uuid.NewString()
	conv := NewConversation(url)
	start := time.Now()
	r.logger.Printf("run %s: start url=%s", runID, url)

	iterations := 0
	for {
		// REASON
		iterations++
		if iterations > r.maxIterations {
			return conv, fmt.Errorf("run %s: %w after %d transitions", runID, ErrIterationLimit, r.maxIterations)
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return conv, fmt.Errorf("run %s: rate limiter: %w", runID, err)
		}
		if r.telemetry != nil {
			r.telemetry.RecordLLMCall()
		}
		reply, err := r.provider.Chat(ctx, r.systemPrompt, conv.Turns(), r.tools.Specs())
		if err != nil {
			return conv, fmt.Errorf("run %s: reasoning call: %w", runID, err)
		}
		reply.Role = RoleAssistant
		conv.Append(reply)

		switch Route(conv.Last()) {
		case DecisionTerminate:
			r.logger.Printf("run %s: complete after %d turns in %s", runID, conv.Len(), time.Since(start).Round(time.Millisecond))
			return conv, nil
		case DecisionContinue:
			continue
		}

		// DISPATCH: sequential, in emitted order, so each tool result is
		// visible before the next call executes.
		iterations++
		if iterations > r.maxIterations {
			return conv, fmt.Errorf("run %s: %w after %d transitions", runID, ErrIterationLimit, r.maxIterations)
		}
		for _, call := range conv.Last().ToolCalls {
			conv.Append(r.dispatch(ctx, runID, call))
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, runID string, call ToolCall) Turn {
	out, err := r.tools.Execute(ctx, call)
	if r.telemetry != nil {
		r.telemetry.RecordToolCall(call.Name, err != nil)
	}
	if err != nil {
		r.logger.Printf("run %s: tool %s failed: %v", runID, call.Name, err)
		out = "ERROR: " + err.Error()
	}
	return Turn{
		Role:       RoleTool,
		Content:    TextContent(out),
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}
