package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/elee1766/rune/src/session"
)

// ToolExecutor is a function type for tool execution
type ToolExecutor func(ctx context.Context, sc *session.Context, call session.ToolCall) (*Result, error)

// ToolMiddleware is a function that wraps a ToolExecutor to add functionality.
type ToolMiddleware func(next ToolExecutor) ToolExecutor

// Toolbox is the static tool registry, filled once at startup.
type Toolbox struct {
	tools      map[string]Tool
	middleware []ToolMiddleware
}

// NewToolbox creates an empty registry.
func NewToolbox() *Toolbox {
	return &Toolbox{
		tools: make(map[string]Tool),
	}
}

// RegisterTool registers a tool.
func (tb *Toolbox) RegisterTool(tool Tool) error {
	if tool.GetName() == "" {
		return ErrToolNameEmpty
	}
	if _, exists := tb.tools[tool.GetName()]; exists {
		return fmt.Errorf("%w: %s", ErrToolRegistered, tool.GetName())
	}

	tb.tools[tool.GetName()] = tool
	return nil
}

// RegisterMiddleware registers middleware that will be applied to all tool executions.
// Middleware is applied in the order it's registered (first registered = outermost layer).
func (tb *Toolbox) RegisterMiddleware(middleware ToolMiddleware) {
	tb.middleware = append(tb.middleware, middleware)
}

// Tools returns the registered tools sorted by name.
func (tb *Toolbox) Tools() []Tool {
	out := make([]Tool, 0, len(tb.tools))
	for _, tool := range tb.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GetName() < out[j].GetName()
	})
	return out
}

// GetTool returns a specific tool by name.
func (tb *Toolbox) GetTool(name string) (Tool, bool) {
	tool, exists := tb.tools[name]
	return tool, exists
}

// ExecuteTool runs a tool call through the middleware chain. The session
// context is only handed to tools that ask for it.
func (tb *Toolbox) ExecuteTool(ctx context.Context, sc *session.Context, call session.ToolCall) (*Result, error) {
	tool, exists := tb.tools[call.Name]
	if !exists {
		return nil, NewToolError(KindUnknownTool, "no tool named %q is registered", call.Name)
	}

	exec := ToolExecutor(func(ctx context.Context, sc *session.Context, call session.ToolCall) (*Result, error) {
		if !tool.NeedsSession() {
			sc = nil
		} else if sc == nil {
			return nil, ErrSessionRequired
		}
		args, err := call.ObjectArguments()
		if err != nil {
			return nil, WrapToolError(KindValue, err)
		}
		return tool.Execute(ctx, sc, args)
	})

	for i := len(tb.middleware) - 1; i >= 0; i-- {
		exec = tb.middleware[i](exec)
	}

	return exec(ctx, sc, call)
}

// LoggingMiddleware logs tool execution details.
func LoggingMiddleware(logger *slog.Logger) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, sc *session.Context, call session.ToolCall) (*Result, error) {
			logger.Debug("executing tool", "tool", call.Name, "params", string(call.Arguments))
			result, err := next(ctx, sc, call)
			if err != nil {
				logger.Debug("tool execution failed", "tool", call.Name, "error", err)
			} else {
				logger.Debug("tool execution completed", "tool", call.Name)
			}
			return result, err
		}
	}
}

// marshalResult encodes a handler output, picking up its display when it
// implements Displayer.
func marshalResult(output any) (*Result, error) {
	data, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	res := &Result{Data: data}
	if d, ok := output.(Displayer); ok {
		res.Display = d.Display()
	}
	return res, nil
}
