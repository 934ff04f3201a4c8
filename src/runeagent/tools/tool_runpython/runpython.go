package tool_runpython

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
	"github.com/elee1766/rune/src/shell"
)

// Tool name constant
const Name = "run_python"

const (
	DefaultBinary  = "python3"
	DefaultTimeout = 30 * time.Second
)

const runPythonPrompt = `Runs a Python script in the session working directory and returns what it printed.

- Each call starts a fresh interpreter: variables and imports do not carry over between calls.
- Use print() to produce output.
- An uncaught exception fails the call with the traceback.
- timeout is in seconds (default 30).`

// RunPythonInput represents the parameters for run_python
type RunPythonInput struct {
	Code    string  `json:"code" required:"true" description:"The Python source to run"`
	Timeout float64 `json:"timeout,omitempty" minimum:"0" description:"Timeout in seconds (default 30)"`
}

// Output is one captured stream.
type Output struct {
	Stream string `json:"stream"`
	Text   string `json:"text"`
}

// RunPythonOutput represents the response from run_python
type RunPythonOutput struct {
	Outputs []Output `json:"outputs"`
}

func (o RunPythonOutput) Display() string {
	var parts []string
	for _, out := range o.Outputs {
		if t := strings.TrimRight(out.Text, "\n"); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "(no output)"
	}
	return strings.Join(parts, "\n")
}

// Config selects the interpreter.
type Config struct {
	Runner         *shell.Runner
	Binary         string
	DefaultTimeout time.Duration
}

// Tool returns the run_python tool definition using GenericTool
func Tool(cfg Config) (agent.Tool, error) {
	if cfg.Runner == nil {
		cfg.Runner = shell.NewRunner(toolsutil.GetLogger())
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	return agent.NewSessionTool(Name, runPythonPrompt, makeRunPythonHandler(cfg))
}

func makeRunPythonHandler(cfg Config) agent.SessionToolHandler[RunPythonInput, RunPythonOutput] {
	return func(ctx context.Context, sc *session.Context, input RunPythonInput) (RunPythonOutput, error) {
		timeout := cfg.DefaultTimeout
		if input.Timeout > 0 {
			timeout = time.Duration(input.Timeout * float64(time.Second))
		}

		res, err := cfg.Runner.Run(ctx, shell.Spec{
			Argv:    []string{cfg.Binary, "-"},
			Dir:     sc.WorkingDir(),
			Stdin:   strings.NewReader(input.Code),
			Timeout: timeout,
		})
		switch {
		case errors.Is(err, shell.ErrTimeout):
			return RunPythonOutput{}, agent.NewToolError(agent.KindTimeout, "Execution timed out after %g seconds.", timeout.Seconds())
		case errors.Is(err, exec.ErrNotFound):
			return RunPythonOutput{}, &agent.ToolError{
				Kind:    agent.KindFileNotFound,
				Message: fmt.Sprintf("Python interpreter not found: %s", cfg.Binary),
				Cause:   err,
			}
		case err != nil:
			return RunPythonOutput{}, err
		}

		if res.ExitCode != 0 {
			msg := strings.TrimSpace(res.Stderr)
			if msg == "" {
				msg = fmt.Sprintf("python exited with code %d", res.ExitCode)
			}
			return RunPythonOutput{}, agent.ValueErrorf("%s", msg)
		}

		out := RunPythonOutput{Outputs: []Output{}}
		if res.Stdout != "" {
			out.Outputs = append(out.Outputs, Output{Stream: "stdout", Text: res.Stdout})
		}
		if res.Stderr != "" {
			out.Outputs = append(out.Outputs, Output{Stream: "stderr", Text: res.Stderr})
		}
		toolsutil.GetLogger().Debug("python finished", "duration", res.Duration, "outputs", len(out.Outputs))
		return out, nil
	}
}
