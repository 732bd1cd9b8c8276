package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"quizagent/internal/ratelimit"
)

// scriptedProvider emits one tool call per reasoning step until endAfter
// steps have passed, then emits the completion token.
type scriptedProvider struct {
	endAfter int // -1 never ends
	calls    int
}

func (p *scriptedProvider) Chat(ctx context.Context, system string, turns []Turn, tools []ToolSpec) (Turn, error) {
	p.calls++
	if p.endAfter >= 0 && p.calls > p.endAfter {
		return Turn{Role: RoleAssistant, Content: TextContent("END")}, nil
	}
	return Turn{
		Role: RoleAssistant,
		ToolCalls: []ToolCall{{
			ID:        fmt.Sprintf("call-%d", p.calls),
			Name:      "post_request",
			Arguments: json.RawMessage(`{"url":"https://quiz.example/submit"}`),
		}},
	}, nil
}

type recordingExecutor struct {
	executed []string
	err      error
}

func (e *recordingExecutor) Specs() []ToolSpec {
	return []ToolSpec{{Name: "post_request", Description: "submit", Schema: `{"type":"object"}`}}
}

func (e *recordingExecutor) Execute(ctx context.Context, call ToolCall) (string, error) {
	e.executed = append(e.executed, call.ID)
	if e.err != nil {
		return "", e.err
	}
	return `{"status":200}`, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestRunner(p ChatProvider, e ToolExecutor, maxIterations int) *Runner {
	return NewRunner(p, e, ratelimit.New(0), nil, testLogger(), maxIterations, "a@b.c", "s3cret")
}

func TestRunTerminatesAfterScriptedRounds(t *testing.T) {
	const rounds = 3
	provider := &scriptedProvider{endAfter: rounds}
	exec := &recordingExecutor{}
	runner := newTestRunner(provider, exec, 0)

	conv, err := runner.Run(context.Background(), "https://quiz.example/q1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if provider.calls != rounds+1 {
		t.Errorf("reasoning calls = %d, want %d", provider.calls, rounds+1)
	}
	if len(exec.executed) != rounds {
		t.Errorf("dispatched tool calls = %d, want %d", len(exec.executed), rounds)
	}
	// seed + (assistant+tool) per round + final assistant
	if want := 1 + 2*rounds + 1; conv.Len() != want {
		t.Errorf("conversation length = %d, want %d", conv.Len(), want)
	}
	if conv.Last().Content.PrimaryText() != CompletionToken {
		t.Errorf("final turn = %q, want completion token", conv.Last().Content.PrimaryText())
	}
}

func TestRunHitsIterationCeiling(t *testing.T) {
	provider := &scriptedProvider{endAfter: -1}
	exec := &recordingExecutor{}
	runner := newTestRunner(provider, exec, 9)

	_, err := runner.Run(context.Background(), "https://quiz.example/q1")
	if !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("err = %v, want ErrIterationLimit", err)
	}
	if provider.calls > 9 {
		t.Errorf("provider called %d times past a ceiling of 9", provider.calls)
	}
}

func TestRunRecoversToolFailure(t *testing.T) {
	provider := &scriptedProvider{endAfter: 1}
	exec := &recordingExecutor{err: errors.New("connection refused")}
	runner := newTestRunner(provider, exec, 0)

	conv, err := runner.Run(context.Background(), "https://quiz.example/q1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	toolTurn := conv.Turns()[2]
	if toolTurn.Role != RoleTool {
		t.Fatalf("turn 2 role = %s, want tool", toolTurn.Role)
	}
	if !strings.HasPrefix(toolTurn.Content.PrimaryText(), "ERROR: ") {
		t.Errorf("tool turn content = %q, want ERROR prefix", toolTurn.Content.PrimaryText())
	}
	if !strings.Contains(toolTurn.Content.PrimaryText(), "connection refused") {
		t.Errorf("tool turn content = %q, want cause included", toolTurn.Content.PrimaryText())
	}
}

type failingProvider struct{}

func (failingProvider) Chat(ctx context.Context, system string, turns []Turn, tools []ToolSpec) (Turn, error) {
	return Turn{}, errors.New("provider unavailable")
}

func TestRunPropagatesProviderFailure(t *testing.T) {
	runner := newTestRunner(failingProvider{}, &recordingExecutor{}, 0)
	conv, err := runner.Run(context.Background(), "https://quiz.example/q1")
	if err == nil {
		t.Fatal("Run returned nil error")
	}
	if conv.Len() != 1 {
		t.Errorf("conversation length = %d, want seed only", conv.Len())
	}
}

func TestRunToolResultsPreserveCallOrder(t *testing.T) {
	provider := &multiCallProvider{}
	exec := &recordingExecutor{}
	runner := newTestRunner(provider, exec, 0)

	conv, err := runner.Run(context.Background(), "https://quiz.example/q1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(exec.executed) != 2 || exec.executed[0] != "first" || exec.executed[1] != "second" {
		t.Fatalf("execution order = %v", exec.executed)
	}
	turns := conv.Turns()
	if turns[2].ToolCallID != "first" || turns[3].ToolCallID != "second" {
		t.Errorf("tool-result order = %q, %q", turns[2].ToolCallID, turns[3].ToolCallID)
	}
}

// multiCallProvider emits two tool calls in one turn, then terminates.
type multiCallProvider struct {
	calls int
}

func (p *multiCallProvider) Chat(ctx context.Context, system string, turns []Turn, tools []ToolSpec) (Turn, error) {
	p.calls++
	if p.calls > 1 {
		return Turn{Role: RoleAssistant, Content: TextContent("END")}, nil
	}
	return Turn{
		Role: RoleAssistant,
		ToolCalls: []ToolCall{
			{ID: "first", Name: "post_request"},
			{ID: "second", Name: "post_request"},
		},
	}, nil
}
