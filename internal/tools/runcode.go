package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const (
	runnerFileName    = "runner.py"
	lastStdoutName    = "last_runner_stdout.txt"
	lastStderrName    = "last_runner_stderr.txt"
	timeoutReturnCode = -2
	failureReturnCode = -1
)

// RunCode executes model-generated source in a separate interpreter process
// with a hard wall-clock ceiling. The runner file and its outputs live in
// the runtime directory, outside the source tree.
type RunCode struct {
	Dir         string
	Interpreter string
	Timeout     time.Duration
	Logger      *log.Logger
}

type runCodeArgs struct {
	Code string `json:"code"`
}

type runCodeResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
}

func (RunCode) Name() string { return "run_code" }

func (RunCode) Description() string {
	return "Execute Python code in an isolated process and return stdout, stderr and the return code."
}

func (RunCode) Schema() string {
	return `{
  "type": "object",
  "required": ["code"],
  "properties": {
    "code": {"type": "string", "description": "Python source to execute; markdown fences are stripped"}
  },
  "additionalProperties": false
}`
}

// Exec never returns a tool-level error for execution failures: timeouts map
// to return_code -2, other failures to -1, so the model always receives a
// structured result it can reason about.
func (r RunCode) Exec(ctx context.Context, raw json.RawMessage) (string, error) {
	var args runCodeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}

	result := r.run(ctx, stripCodeFences(args.Code))
	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (r RunCode) run(ctx context.Context, code string) runCodeResult {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return runCodeResult{Stderr: err.Error(), ReturnCode: failureReturnCode}
	}
	if err := os.WriteFile(filepath.Join(r.Dir, runnerFileName), []byte(code), 0o644); err != nil {
		return runCodeResult{Stderr: err.Error(), ReturnCode: failureReturnCode}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interpreter := r.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, interpreter, runnerFileName)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// The executed code may fork. Put it in its own process group and kill
	// the whole group on timeout; WaitDelay abandons the output pipes in
	// case a descendant escapes the group and keeps the write ends open,
	// so the wall-clock ceiling holds for the caller, not just the child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second
	runErr := cmd.Run()

	r.persistOutputs(stdout.String(), stderr.String())

	result := runCodeResult{Stdout: stdout.String(), Stderr: stderr.String()}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ReturnCode = timeoutReturnCode
		result.Stderr = "TimeoutExpired: execution exceeded " + timeout.String()
	case runErr == nil:
		result.ReturnCode = cmd.ProcessState.ExitCode()
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ReturnCode = exitErr.ExitCode()
		} else {
			result.ReturnCode = failureReturnCode
			result.Stderr = runErr.Error()
		}
	}
	return result
}

// persistOutputs keeps the last run's streams for post-mortem debugging.
func (r RunCode) persistOutputs(stdout, stderr string) {
	if err := os.WriteFile(filepath.Join(r.Dir, lastStdoutName), []byte(stdout), 0o644); err != nil && r.Logger != nil {
		r.Logger.Printf("persist stdout: %v", err)
	}
	if err := os.WriteFile(filepath.Join(r.Dir, lastStderrName), []byte(stderr), 0o644); err != nil && r.Logger != nil {
		r.Logger.Printf("persist stderr: %v", err)
	}
}

// stripCodeFences removes a surrounding markdown code fence, language tag
// included, from model-generated source.
func stripCodeFences(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "```") {
		if _, rest, ok := strings.Cut(code, "\n"); ok {
			code = rest
		}
	}
	if strings.HasSuffix(code, "```") {
		if idx := strings.LastIndex(code, "\n"); idx >= 0 {
			code = code[:idx]
		}
	}
	return strings.TrimSpace(code)
}
