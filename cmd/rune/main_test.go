package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/rune/src/aisdk"
	"github.com/elee1766/rune/src/app"
	"github.com/elee1766/rune/src/config"
	"github.com/elee1766/rune/src/orclient"
	"github.com/elee1766/rune/src/runeagent"
	"github.com/elee1766/rune/src/session"
)

func parseArgs(t *testing.T, args ...string) (*kong.Context, *CLI, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("rune"),
		kong.Vars{"default_log_file": "/tmp/rune.log"},
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	return ctx, &cli, err
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{[]string{"models"}, "models list"},
		{[]string{"models", "info", "openai/gpt-4o"}, "models info <model>"},
		{[]string{"sessions"}, "sessions list"},
		{[]string{"tools", "show", "grep"}, "tools show <name>"},
		{[]string{"migrate"}, "migrate up"},
		{[]string{"config", "init", "--project"}, "config init"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			ctx, _, err := parseArgs(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.command, ctx.Command())
		})
	}
}

func TestParseGlobalFlags(t *testing.T) {
	_, cli, err := parseArgs(t, "--model", "openai/gpt-4o", "--log-level", "debug", "chat", "--resume")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", cli.Model)
	assert.Equal(t, "debug", cli.LogLevel)
	assert.True(t, cli.Chat.Resume)

	_, _, err = parseArgs(t, "--log-level", "loud", "models")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitError},
		{"usage", fmt.Errorf("%w: bad", errUsage), ExitUsage},
		{"config", fmt.Errorf("%w: %w", errConfig, errors.New("parse")), ExitConfig},
		{"validation", fmt.Errorf("wrapped: %w", config.ValidationError{Field: "Model"}), ExitConfig},
		{"api error", fmt.Errorf("failed: %w", &orclient.APIError{StatusCode: 500}), ExitAPI},
		{"no api key", orclient.ErrNoAPIKey, ExitAPI},
		{"model not found", fmt.Errorf("x: %w", orclient.ErrModelNotFound), ExitAPI},
		{"no tools", app.ErrModelWithoutTools, ExitAPI},
		{"session missing", fmt.Errorf("%w: %w", errSession, session.ErrSessionNotFound), ExitSession},
		{"save failed", app.ErrSaveFailed, ExitSession},
		{"picker aborted", huh.ErrUserAborted, ExitInterrupted},
		{"canceled", context.Canceled, ExitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(""))
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name      string
		level     slog.Level
		wantFile  []string
		wantQuiet bool
	}{
		{name: "warn console keeps info in the file", level: slog.LevelWarn, wantFile: []string{"started", "careful"}, wantQuiet: true},
		{name: "debug reaches both", level: slog.LevelDebug, wantFile: []string{"detail", "started", "careful"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var console, file bytes.Buffer
			logger := slog.New(newHandler(tt.level, &console, false, &file)).With("component", "test")

			logger.Debug("detail")
			logger.Info("started")
			logger.Warn("careful", "n", 1)

			assert.Contains(t, console.String(), "careful")
			assert.Contains(t, console.String(), "component=test")
			assert.NotContains(t, console.String(), "\x1b[")
			if tt.wantQuiet {
				assert.NotContains(t, console.String(), "started")
			}

			lines := strings.Split(strings.TrimSpace(file.String()), "\n")
			require.Len(t, lines, len(tt.wantFile))
			for i, msg := range tt.wantFile {
				var rec map[string]any
				require.NoError(t, json.Unmarshal([]byte(lines[i]), &rec))
				assert.Equal(t, msg, rec["msg"])
				assert.Equal(t, "test", rec["component"])
			}
		})
	}
}

func TestNewHandlerWithoutFile(t *testing.T) {
	var console bytes.Buffer
	h := newHandler(slog.LevelError, &console, false, nil)
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	slog.New(h).Error("broken")
	assert.Contains(t, console.String(), "broken")
}

func TestPrintSessions(t *testing.T) {
	var out bytes.Buffer
	err := printSessions(&out, []session.Summary{
		{Name: "session_a", Path: "/p/.rune/sessions/session_a.json", Model: "openai/gpt-4o", UpdatedAt: time.Now().Add(-2 * time.Hour), MessageCount: 12},
		{Name: "session_b", Path: "/p/.rune/sessions/session_b.json", UpdatedAt: time.Now(), MessageCount: 0},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "NAME")
	assert.Contains(t, text, "session_a")
	assert.Contains(t, text, "2 hours ago")
	assert.Contains(t, text, "12")
	assert.Regexp(t, `session_b\s+-\s+0`, text)
}

func TestSessionLabel(t *testing.T) {
	label := sessionLabel(session.Summary{Name: "session_a", MessageCount: 3, Model: "x/y", UpdatedAt: time.Now()})
	assert.Contains(t, label, "session_a")
	assert.Contains(t, label, "3 messages")
	assert.Contains(t, label, "x/y")
}

func TestPrintTranscript(t *testing.T) {
	sess := session.New("/p/.rune/sessions", "/p", time.Now())
	sess.Model = "x/y"
	errData, _ := json.Marshal("Tool 'read_file' failed with FileNotFoundError: a.txt")
	history := []session.Message{
		session.NewMessage(1, session.RoleUser, "read a.txt"),
		{ID: "m2", Sequence: 2, Role: session.RoleToolCall, ToolCall: &session.ToolCall{ID: "c1", Name: "read_file", Arguments: json.RawMessage(`{"path":"a.txt"}`)}},
		{ID: "m3", Sequence: 3, Role: session.RoleToolResult, ToolResult: &session.ToolResult{CallID: "c1", Name: "read_file", Status: session.StatusError, Data: errData}},
		session.NewMessage(4, session.RoleAssistant, "It does not exist."),
	}
	require.NoError(t, sess.Replace(history))
	sess.Context.AddTodos(session.Todo{ID: "t1", Title: "create a.txt", Status: session.TodoPending, Priority: session.PriorityMedium})

	var out bytes.Buffer
	printTranscript(&out, sess)

	text := out.String()
	assert.Contains(t, text, sess.Name)
	assert.Contains(t, text, "read a.txt")
	assert.Contains(t, text, `{"path":"a.txt"}`)
	assert.Contains(t, text, "FileNotFoundError: a.txt")
	assert.Contains(t, text, "It does not exist.")
	assert.Contains(t, text, "create a.txt")
}

func TestPrintModelsTable(t *testing.T) {
	models := []*aisdk.ModelInfo{
		{ID: "a/tools", Name: "Tools", ContextLength: 128000, Pricing: &aisdk.Pricing{Prompt: "0.000001"}},
		{ID: "b/plain", Name: "Plain", ContextLength: 8192, SupportedParameters: []string{"temperature"}},
	}

	var out bytes.Buffer
	require.NoError(t, printModelsTable(&out, models, true))
	text := out.String()
	assert.Regexp(t, `a/tools\s+Tools\s+128,000\s+yes\s+0\.000001\s+N/A`, text)
	assert.Regexp(t, `b/plain\s+Plain\s+8,192\s+no`, text)

	toolModels := filterModels(models, func(m *aisdk.ModelInfo) bool { return m.SupportsTools() })
	require.Len(t, toolModels, 1)
	assert.Equal(t, "a/tools", toolModels[0].ID)
}

func TestPrintToolsTable(t *testing.T) {
	var out bytes.Buffer
	err := printToolsTable(&out, []runeagent.ToolInfo{
		{Name: "grep", Category: "filesystem", Description: "Search files.\nMore detail."},
		{Name: "add_todos", Category: "planning", NeedsSession: true, Description: "Add todos."},
	})
	require.NoError(t, err)
	text := out.String()
	assert.Regexp(t, `grep\s+filesystem\s+no\s+Search files\.`, text)
	assert.NotContains(t, text, "More detail.")
	assert.Regexp(t, `add_todos\s+planning\s+yes`, text)
}
