// Package runeagent assembles the rune tool set and system prompt.
package runeagent

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/tools/tool_editfile"
	"github.com/elee1766/rune/src/runeagent/tools/tool_fetchurl"
	"github.com/elee1766/rune/src/runeagent/tools/tool_getmetadata"
	"github.com/elee1766/rune/src/runeagent/tools/tool_grep"
	"github.com/elee1766/rune/src/runeagent/tools/tool_listfiles"
	"github.com/elee1766/rune/src/runeagent/tools/tool_readchunk"
	"github.com/elee1766/rune/src/runeagent/tools/tool_readfile"
	"github.com/elee1766/rune/src/runeagent/tools/tool_runcommand"
	"github.com/elee1766/rune/src/runeagent/tools/tool_runpython"
	"github.com/elee1766/rune/src/runeagent/tools/tool_todos"
	"github.com/elee1766/rune/src/runeagent/tools/tool_writefile"
	"github.com/elee1766/rune/src/shell"
)

// ToolsetConfig configures the tools handed to the model.
type ToolsetConfig struct {
	Workspace      *rfs.Workspace
	CommandTimeout time.Duration
	PythonBinary   string
	PythonTimeout  time.Duration
	FetchMaxBytes  int64
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// NewToolbox registers every rune tool and the logging middleware.
func NewToolbox(cfg ToolsetConfig) (*agent.Toolbox, error) {
	if cfg.Workspace == nil {
		return nil, fmt.Errorf("workspace is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := shell.NewRunner(logger)
	ws := cfg.Workspace

	creators := []struct {
		name    string
		creator func() (agent.Tool, error)
	}{
		{tool_listfiles.Name, func() (agent.Tool, error) { return tool_listfiles.Tool(ws) }},
		{tool_readfile.Name, func() (agent.Tool, error) { return tool_readfile.Tool(ws) }},
		{tool_readchunk.Name, func() (agent.Tool, error) { return tool_readchunk.Tool(ws) }},
		{tool_writefile.Name, func() (agent.Tool, error) { return tool_writefile.Tool(ws) }},
		{tool_editfile.Name, func() (agent.Tool, error) { return tool_editfile.Tool(ws) }},
		{tool_grep.Name, func() (agent.Tool, error) { return tool_grep.Tool(ws) }},
		{tool_getmetadata.Name, func() (agent.Tool, error) { return tool_getmetadata.Tool(ws) }},
		{tool_fetchurl.Name, func() (agent.Tool, error) {
			return tool_fetchurl.Tool(tool_fetchurl.Config{Client: cfg.HTTPClient, MaxBytes: cfg.FetchMaxBytes})
		}},
		{tool_runcommand.Name, func() (agent.Tool, error) {
			return tool_runcommand.Tool(ws, tool_runcommand.Config{Runner: runner, DefaultTimeout: cfg.CommandTimeout})
		}},
		{tool_runpython.Name, func() (agent.Tool, error) {
			return tool_runpython.Tool(tool_runpython.Config{Runner: runner, Binary: cfg.PythonBinary, DefaultTimeout: cfg.PythonTimeout})
		}},
	}

	toolbox := agent.NewToolbox()
	for _, tc := range creators {
		tool, err := tc.creator()
		if err != nil {
			return nil, fmt.Errorf("failed to create %s tool: %w", tc.name, err)
		}
		if err := toolbox.RegisterTool(tool); err != nil {
			return nil, fmt.Errorf("failed to register %s tool: %w", tc.name, err)
		}
		logger.Debug("registered tool", "tool", tc.name)
	}

	todoTools, err := tool_todos.Tools()
	if err != nil {
		return nil, fmt.Errorf("failed to create todo tools: %w", err)
	}
	for _, tool := range todoTools {
		if err := toolbox.RegisterTool(tool); err != nil {
			return nil, fmt.Errorf("failed to register %s tool: %w", tool.GetName(), err)
		}
		logger.Debug("registered tool", "tool", tool.GetName())
	}

	toolbox.RegisterMiddleware(agent.LoggingMiddleware(logger))
	return toolbox, nil
}

// ToolInfo describes a registered tool for listings.
type ToolInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	NeedsSession bool   `json:"needs_session"`
}

// DescribeTools lists the tools of tb sorted by name.
func DescribeTools(tb *agent.Toolbox) []ToolInfo {
	tools := tb.Tools()
	out := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		out = append(out, ToolInfo{
			Name:         t.GetName(),
			Description:  t.GetDescription(),
			Category:     categorizeToolByName(t.GetName()),
			NeedsSession: t.NeedsSession(),
		})
	}
	return out
}

func categorizeToolByName(name string) string {
	switch name {
	case tool_listfiles.Name, tool_readfile.Name, tool_readchunk.Name, tool_writefile.Name,
		tool_editfile.Name, tool_grep.Name, tool_getmetadata.Name:
		return "filesystem"
	case tool_runcommand.Name, tool_runpython.Name:
		return "system"
	case tool_fetchurl.Name:
		return "network"
	case tool_todos.AddName, tool_todos.UpdateName, tool_todos.ListName:
		return "planning"
	default:
		return "other"
	}
}
