package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/session"
)

// Invoker runs tool calls under a uniform contract: every call produces
// exactly one ToolResult and exactly one tool-call/tool-result event pair,
// whatever the tool does.
type Invoker struct {
	toolbox *agent.Toolbox
	sink    ProgressSink
	logger  *slog.Logger
}

// NewInvoker creates an invoker for the tools in tb.
func NewInvoker(tb *agent.Toolbox, sink ProgressSink, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tool_invoker")
	return &Invoker{
		toolbox: tb,
		sink:    guard(sink, logger),
		logger:  logger,
	}
}

// Invoke runs call and returns its normalized result. Use
// ToolResult.Envelope to obtain what the model receives.
func (inv *Invoker) Invoke(ctx context.Context, sc *session.Context, call session.ToolCall) session.ToolResult {
	params, err := call.Params()
	if err != nil {
		params = session.NewParams()
		params.Set("arguments", string(call.Arguments))
	}
	inv.sink.OnToolCall(call.Name, params)

	start := time.Now()
	res, err := inv.run(ctx, sc, call)
	duration := time.Since(start)

	var result session.ToolResult
	if err != nil {
		result = FailureResult(call, err)
		inv.logger.Info("tool failed", "tool", call.Name, "call_id", call.ID, "duration", duration, "error", err)
	} else {
		result = session.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Status:  session.StatusSuccess,
			Data:    res.Data,
			Display: res.Display,
		}
		if len(result.Data) == 0 {
			result.Data = json.RawMessage("null")
		}
		inv.logger.Debug("tool completed", "tool", call.Name, "call_id", call.ID, "duration", duration)
	}

	inv.sink.OnToolResult(call.Name, result)
	return result
}

// run executes the tool on its own goroutine and waits for it, converting
// panics to errors.
func (inv *Invoker) run(ctx context.Context, sc *session.Context, call session.ToolCall) (*agent.Result, error) {
	type outcome struct {
		res *agent.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				inv.logger.Error("tool panicked", "tool", call.Name, "panic", r, "stack", string(debug.Stack()))
				done <- outcome{err: &agent.PanicError{Value: r}}
			}
		}()
		res, err := inv.toolbox.ExecuteTool(ctx, sc, call)
		if err == nil && res == nil {
			err = fmt.Errorf("tool returned no result")
		}
		done <- outcome{res: res, err: err}
	}()

	// Tools own their timeouts; the call is always awaited so its result is
	// never dropped.
	o := <-done
	return o.res, o.err
}

// FailureResult builds the error result reported for a failed call.
func FailureResult(call session.ToolCall, err error) session.ToolResult {
	text := agent.FailureText(call.Name, err)
	data, _ := json.Marshal(text)
	return session.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Status:  session.StatusError,
		Data:    data,
		Display: text,
	}
}
