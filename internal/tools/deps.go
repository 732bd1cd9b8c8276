package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os/exec"
	"time"
)

// AddDependencies installs Python packages required by generated code before
// it runs.
type AddDependencies struct {
	Interpreter string
	Timeout     time.Duration
	Logger      *log.Logger
}

type addDependenciesArgs struct {
	Packages []string `json:"packages"`
}

type addDependenciesResult struct {
	Status string `json:"status"`
	Output string `json:"output"`
}

func (AddDependencies) Name() string { return "add_dependencies" }

func (AddDependencies) Description() string {
	return "Install Python packages with pip so subsequent run_code calls can import them."
}

func (AddDependencies) Schema() string {
	return `{
  "type": "object",
  "required": ["packages"],
  "properties": {
    "packages": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 1,
      "description": "pip requirement specifiers to install"
    }
  },
  "additionalProperties": false
}`
}

// Exec reports install failures as structured status output so the model can
// retry with a different specifier instead of aborting the run.
func (a AddDependencies) Exec(ctx context.Context, raw json.RawMessage) (string, error) {
	var args addDependenciesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interpreter := a.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}

	cmdArgs := append([]string{"-m", "pip", "install", "--quiet"}, args.Packages...)
	var combined bytes.Buffer
	cmd := exec.CommandContext(ctx, interpreter, cmdArgs...)
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	runErr := cmd.Run()

	result := addDependenciesResult{Status: "ok", Output: combined.String()}
	if runErr != nil {
		result.Status = "error"
		if result.Output == "" {
			result.Output = runErr.Error()
		}
		if a.Logger != nil {
			a.Logger.Printf("pip install %v failed: %v", args.Packages, runErr)
		}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
