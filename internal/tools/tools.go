// Package tools implements the fixed registry of side-effecting capabilities
// the agent may invoke: page fetch, file download, HTTP POST, sandboxed code
// execution, dependency install and audio processing.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"quizagent/internal/agent"
)

var (
	ErrToolNameRequired      = errors.New("tool name is required")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	ErrToolNotFound          = errors.New("tool not found")
)

// Tool is the runtime contract for every registry entry. Exec receives the
// raw JSON arguments already validated against Schema and returns the result
// content handed back to the model.
type Tool interface {
	Name() string
	Description() string
	Schema() string
	Exec(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry stores tools by name, validates arguments against each tool's
// declared schema and executes by lookup. It implements agent.ToolExecutor.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
	logger  *log.Logger
}

// NewRegistry compiles every tool's argument schema and registers the tools
// in the given order.
func NewRegistry(logger *log.Logger, initial ...Tool) (*Registry, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[TOOLS] ", log.LstdFlags)
	}
	r := &Registry{
		tools:   make(map[string]Tool, len(initial)),
		schemas: make(map[string]*jsonschema.Schema, len(initial)),
		logger:  logger,
	}
	for _, tool := range initial {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register inserts a tool by its canonical name.
func (r *Registry) Register(tool Tool) error {
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return ErrToolNameRequired
	}
	schema, err := jsonschema.CompileString(name+".json", tool.Schema())
	if err != nil {
		return fmt.Errorf("compile %s schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, name)
	}
	r.order = append(r.order, name)
	r.tools[name] = tool
	r.schemas[name] = schema
	return nil
}

// Specs returns the tool declarations in registration order, as exposed to
// the model.
func (r *Registry) Specs() []agent.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]agent.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		specs = append(specs, agent.ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Schema:      tool.Schema(),
		})
	}
	return specs
}

// Execute resolves the named tool, validates the call arguments against its
// schema and runs it.
func (r *Registry) Execute(ctx context.Context, call agent.ToolCall) (string, error) {
	r.mu.RLock()
	tool, ok := r.tools[call.Name]
	schema := r.schemas[call.Name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return "", fmt.Errorf("%s: invalid arguments: %w", call.Name, err)
	}
	if err := schema.Validate(decoded); err != nil {
		return "", fmt.Errorf("%s: invalid arguments: %w", call.Name, err)
	}

	r.logger.Printf("exec %s", call.Name)
	return tool.Exec(ctx, args)
}
