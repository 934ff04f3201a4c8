package tool_runcommand

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/shlex"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
	"github.com/elee1766/rune/src/shell"
)

// Tool name constant
const Name = "run_command"

const DefaultTimeout = 60 * time.Second

const runCommandPrompt = `Executes a command in the session working directory with an optional timeout.

The command is split with shell-like quoting and run directly, without a shell: pipes, redirections, globs and variable expansion are not available.

1. Directory Verification:
   - If the command will create new directories or files, first use list_files to verify the parent directory exists and is the correct location.

2. Command Execution:
   - Always quote file paths that contain spaces with double quotes (e.g., cd "path with spaces/file.txt").
   - "cd <dir>" changes the working directory for all later tool calls in this session. It cannot leave the project directory.

Usage notes:
  - timeout is in seconds (default 60).
  - A non-zero exit status is reported as a failure together with the command's stdout and stderr.`

// RunCommandInput represents the parameters for run_command
type RunCommandInput struct {
	Command string `json:"command" required:"true" description:"The command to execute"`
	Timeout int    `json:"timeout,omitempty" minimum:"0" description:"Timeout in seconds (default 60)"`
}

// RunCommandOutput represents the response from run_command
type RunCommandOutput struct {
	Command  string `json:"command"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	Message  string `json:"message,omitempty"`
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	stderrStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func (o RunCommandOutput) Display() string {
	if o.Message != "" {
		return headerStyle.Render("✓ " + o.Message)
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("✔ Command Succeeded (Exit %d)", o.ExitCode)))
	b.WriteString("\n" + promptStyle.Render("$ "+o.Command))
	if s := strings.TrimRight(o.Stdout, "\n"); s != "" {
		b.WriteString("\n" + labelStyle.Render("STDOUT") + "\n" + s)
	}
	if s := strings.TrimRight(o.Stderr, "\n"); s != "" {
		b.WriteString("\n" + stderrStyle.Render("STDERR") + "\n" + s)
	}
	return b.String()
}

// Config controls command execution.
type Config struct {
	Runner         *shell.Runner
	DefaultTimeout time.Duration
}

// Tool returns the run_command tool definition using GenericTool
func Tool(ws *rfs.Workspace, cfg Config) (agent.Tool, error) {
	if cfg.Runner == nil {
		cfg.Runner = shell.NewRunner(toolsutil.GetLogger())
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	return agent.NewSessionTool(Name, runCommandPrompt, makeRunCommandHandler(ws, cfg))
}

func makeRunCommandHandler(ws *rfs.Workspace, cfg Config) agent.SessionToolHandler[RunCommandInput, RunCommandOutput] {
	return func(ctx context.Context, sc *session.Context, input RunCommandInput) (RunCommandOutput, error) {
		argv, err := shlex.Split(input.Command)
		if err != nil {
			return RunCommandOutput{}, agent.ValueErrorf("failed to parse command: %v", err)
		}
		if len(argv) == 0 {
			return RunCommandOutput{}, agent.ValueErrorf("command is empty")
		}

		if argv[0] == "cd" {
			return changeDir(ws, sc, input.Command, argv[1:])
		}

		timeout := cfg.DefaultTimeout
		if input.Timeout > 0 {
			timeout = time.Duration(input.Timeout) * time.Second
		}

		toolsutil.GetLogger().Info("running command", "command", input.Command, "dir", sc.WorkingDir(), "timeout", timeout)

		res, err := cfg.Runner.Run(ctx, shell.Spec{
			Argv:    argv,
			Dir:     sc.WorkingDir(),
			Timeout: timeout,
		})
		switch {
		case errors.Is(err, shell.ErrTimeout):
			return RunCommandOutput{}, agent.NewToolError(agent.KindTimeout, "Command timed out after %s seconds.", seconds(timeout))
		case errors.Is(err, exec.ErrNotFound):
			return RunCommandOutput{}, &agent.ToolError{
				Kind:    agent.KindFileNotFound,
				Message: fmt.Sprintf("No such file or directory: '%s'", argv[0]),
				Cause:   err,
			}
		case err != nil:
			return RunCommandOutput{}, err
		}

		if res.ExitCode != 0 {
			return RunCommandOutput{}, agent.NewToolError(agent.KindCommand,
				"Command failed with exit code %d.\nStdout: %s\n------------------------------------\nStderr: %s",
				res.ExitCode, strings.TrimSpace(res.Stdout), strings.TrimSpace(res.Stderr))
		}

		return RunCommandOutput{
			Command:  input.Command,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			ExitCode: res.ExitCode,
		}, nil
	}
}

// changeDir implements the cd builtin against the session working directory.
// Without an argument it returns to the project root.
func changeDir(ws *rfs.Workspace, sc *session.Context, command string, args []string) (RunCommandOutput, error) {
	target := ws.Root()
	if len(args) > 0 {
		target = args[0]
	}

	dir, err := ws.Resolve(sc.WorkingDir(), target)
	if err != nil {
		return RunCommandOutput{}, err
	}
	info, err := ws.Base().Stat(dir)
	if err != nil || !info.IsDir() {
		return RunCommandOutput{}, agent.ValueErrorf("cd: no such file or directory: %s", dir)
	}

	sc.SetWorkingDir(dir)
	toolsutil.GetLogger().Info("changed working directory", "dir", dir)
	return RunCommandOutput{
		Command: command,
		Message: "Changed directory to " + dir,
	}, nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%g", d.Seconds())
}
