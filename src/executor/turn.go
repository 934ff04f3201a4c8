// Package executor drives conversational turns: it asks the model for steps,
// runs requested tools and reports progress.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/session"
)

const (
	DefaultRequestLimit     = 1000
	DefaultMaxParallelTools = 4
)

// TurnStatus is the terminal state of a turn.
type TurnStatus string

const (
	StatusCompleted   TurnStatus = "completed"
	StatusInterrupted TurnStatus = "interrupted"
	// StatusFailed means the model collaborator failed; the partial history
	// is still returned.
	StatusFailed TurnStatus = "failed"
)

// TurnRequest is the input of one turn.
type TurnRequest struct {
	// History is the persisted log before the turn. It is not modified.
	History []session.Message
	Input   string
	// Context is handed to tools that need session state.
	Context *session.Context
	// Interrupt lets the caller stop the turn. A nil Interrupt makes the turn
	// uninterruptible.
	Interrupt *Interrupt
}

// Outcome is the result of one turn. History always includes every message
// produced before the turn stopped.
type Outcome struct {
	History  []session.Message
	Status   TurnStatus
	Err      error
	Requests int
}

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	Model   agent.Model
	Toolbox *agent.Toolbox
	Sink    ProgressSink
	Logger  *slog.Logger
	// RequestLimit caps model requests per turn. Zero means
	// DefaultRequestLimit, negative means unlimited.
	RequestLimit int
	// MaxParallelTools bounds concurrent tools within one batch.
	MaxParallelTools int
}

// Controller runs turns, one at a time.
type Controller struct {
	model        agent.Model
	invoker      *Invoker
	sink         ProgressSink
	logger       *slog.Logger
	requestLimit int
	maxParallel  int

	running sync.Mutex
}

// NewController validates cfg and creates a controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Model == nil {
		return nil, ErrModelRequired
	}
	if cfg.Toolbox == nil {
		return nil, ErrToolboxRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestLimit == 0 {
		cfg.RequestLimit = DefaultRequestLimit
	}
	if cfg.MaxParallelTools <= 0 {
		cfg.MaxParallelTools = DefaultMaxParallelTools
	}
	sink := guard(cfg.Sink, logger)

	return &Controller{
		model:        cfg.Model,
		invoker:      NewInvoker(cfg.Toolbox, sink, logger),
		sink:         sink,
		logger:       logger.With("component", "turn_controller"),
		requestLimit: cfg.RequestLimit,
		maxParallel:  cfg.MaxParallelTools,
	}, nil
}

// SetModel swaps the model used by subsequent turns.
func (c *Controller) SetModel(m agent.Model) {
	c.running.Lock()
	defer c.running.Unlock()
	c.model = m
}

// Run executes one turn. The returned error is only set for requests that
// could not start; every started turn yields an Outcome.
func (c *Controller) Run(ctx context.Context, req *TurnRequest) (*Outcome, error) {
	if req == nil || session.IsBlank(req.Input) {
		return nil, ErrEmptyInput
	}
	if req.Context == nil {
		return nil, ErrContextRequired
	}
	intr := req.Interrupt
	if intr == nil {
		intr = NewInterrupt()
	}
	if intr.Finished() {
		return nil, ErrInterruptReused
	}
	if !c.running.TryLock() {
		return nil, ErrTurnInProgress
	}
	defer c.running.Unlock()
	defer intr.finish()

	t := newWorkingHistory(req.History)
	t.append(session.RoleUser, req.Input)

	// Model requests are aborted by an interrupt; tools are not.
	modelCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-intr.Done():
			cancel()
		case <-modelCtx.Done():
		}
	}()

	logger := c.logger.With("turn_seq", t.start)
	logger.Debug("turn started", "history", len(req.History))

	requests := 0
	for {
		if intr.Requested() || ctx.Err() != nil {
			return c.interrupted(logger, t, requests), nil
		}
		if c.requestLimit > 0 && requests >= c.requestLimit {
			return c.exhausted(logger, t, requests, nil), nil
		}

		requests++
		step, err := c.model.NextStep(modelCtx, t.snapshot())
		if err != nil {
			switch {
			case intr.Requested() || ctx.Err() != nil:
				return c.interrupted(logger, t, requests), nil
			case errors.Is(err, agent.ErrStepBudgetExceeded):
				return c.exhausted(logger, t, requests, err), nil
			}
			logger.Error("model request failed", "request", requests, "error", err)
			return &Outcome{
				History:  t.messages,
				Status:   StatusFailed,
				Err:      fmt.Errorf("%w: %w", ErrModelRequestFail, err),
				Requests: requests,
			}, nil
		}

		if !session.IsBlank(step.Thinking) {
			t.append(session.RoleThinking, step.Thinking)
			c.sink.OnText(TextThinking, step.Thinking)
		}
		if !session.IsBlank(step.Text) {
			t.append(session.RoleAssistant, step.Text)
			c.sink.OnText(TextAssistant, step.Text)
		}

		if step.Final() {
			logger.Info("turn completed", "requests", requests, "messages", len(t.messages))
			return &Outcome{History: t.messages, Status: StatusCompleted, Requests: requests}, nil
		}

		if intr.Requested() {
			return c.interrupted(logger, t, requests), nil
		}
		c.dispatch(ctx, t, req.Context, step.ToolCalls)
	}
}

// dispatch runs one batch of tool calls. Call messages are appended in the
// order the model emitted them, results in the order they complete.
func (c *Controller) dispatch(ctx context.Context, t *workingHistory, sc *session.Context, calls []session.ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
		calls[i].Arguments = session.CompactJSON(calls[i].Arguments)
		call := calls[i]
		t.appendToolCall(&call)
	}

	var g errgroup.Group
	g.SetLimit(c.maxParallel)
	for _, call := range calls {
		g.Go(func() error {
			result := c.invoker.Invoke(ctx, sc, call)
			t.appendToolResult(&result)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Controller) interrupted(logger *slog.Logger, t *workingHistory, requests int) *Outcome {
	t.append(session.RoleUser, session.InterruptedText)
	logger.Info("turn interrupted", "requests", requests, "messages", len(t.messages))
	return &Outcome{History: t.messages, Status: StatusInterrupted, Requests: requests}
}

func (c *Controller) exhausted(logger *slog.Logger, t *workingHistory, requests int, cause error) *Outcome {
	err := agent.ErrStepBudgetExceeded
	if cause != nil {
		err = cause
	} else {
		err = fmt.Errorf("%w: %d requests", err, requests)
	}
	logger.Warn("turn stopped by step budget", "requests", requests)
	return &Outcome{History: t.messages, Status: StatusInterrupted, Err: err, Requests: requests}
}

// workingHistory is the turn-private message list.
type workingHistory struct {
	mu       sync.Mutex
	messages []session.Message
	next     int64
	start    int64
}

func newWorkingHistory(history []session.Message) *workingHistory {
	messages := make([]session.Message, len(history), len(history)+8)
	copy(messages, history)
	next := session.NextSequence(history)
	return &workingHistory{messages: messages, next: next, start: next}
}

func (w *workingHistory) add(m session.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m.Sequence = w.next
	w.next++
	w.messages = append(w.messages, m)
}

func (w *workingHistory) append(role session.Role, content string) {
	w.add(session.NewMessage(0, role, content))
}

func (w *workingHistory) appendToolCall(call *session.ToolCall) {
	m := session.NewMessage(0, session.RoleToolCall, "")
	m.ToolCall = call
	w.add(m)
}

func (w *workingHistory) appendToolResult(result *session.ToolResult) {
	m := session.NewMessage(0, session.RoleToolResult, "")
	result.Data = session.CompactJSON(result.Data)
	m.ToolResult = result
	w.add(m)
}

// snapshot copies the messages so the model cannot observe later appends.
func (w *workingHistory) snapshot() []session.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]session.Message, len(w.messages))
	copy(out, w.messages)
	return out
}
