package executor

import (
	"log/slog"
	"time"

	"github.com/elee1766/rune/src/session"
)

// ProgressSink observes a turn. Implementations must not block for long and
// cannot influence the turn's outcome.
type ProgressSink interface {
	OnToolCall(name string, params *session.Params)
	OnToolResult(name string, result session.ToolResult)
	OnText(kind TextKind, text string)
}

// NopSink discards all progress.
type NopSink struct{}

func (NopSink) OnToolCall(string, *session.Params)      {}
func (NopSink) OnToolResult(string, session.ToolResult) {}
func (NopSink) OnText(TextKind, string)                 {}

// EventEmitter turns progress callbacks into events on an EventSink.
type EventEmitter struct {
	sink   EventSink
	logger *slog.Logger
}

var _ ProgressSink = (*EventEmitter)(nil)

// NewEventEmitter creates a new event emitter
func NewEventEmitter(sink EventSink, logger *slog.Logger) *EventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventEmitter{sink: sink, logger: logger}
}

func (e *EventEmitter) base(t EventType) BaseEvent {
	return BaseEvent{Type: t, Timestamp: time.Now()}
}

func (e *EventEmitter) send(event ConversationEvent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Send(event); err != nil {
		e.logger.Debug("dropped event", "event", event.GetType(), "error", err)
	}
}

func (e *EventEmitter) OnToolCall(name string, params *session.Params) {
	e.send(&ToolCallEvent{BaseEvent: e.base(EventToolCall), Name: name, Params: params})
}

func (e *EventEmitter) OnToolResult(name string, result session.ToolResult) {
	e.send(&ToolResultEvent{BaseEvent: e.base(EventToolResult), Name: name, Result: result})
}

func (e *EventEmitter) OnText(kind TextKind, text string) {
	e.send(&TextEvent{BaseEvent: e.base(EventText), Kind: kind, Text: text})
}

// guardedSink shields the turn from a sink that panics.
type guardedSink struct {
	sink   ProgressSink
	logger *slog.Logger
}

func guard(sink ProgressSink, logger *slog.Logger) ProgressSink {
	if sink == nil {
		return NopSink{}
	}
	if g, ok := sink.(*guardedSink); ok {
		return g
	}
	return &guardedSink{sink: sink, logger: logger}
}

func (g *guardedSink) catch(callback string) {
	if r := recover(); r != nil {
		g.logger.Error("progress sink panicked", "callback", callback, "panic", r)
	}
}

func (g *guardedSink) OnToolCall(name string, params *session.Params) {
	defer g.catch("OnToolCall")
	g.sink.OnToolCall(name, params)
}

func (g *guardedSink) OnToolResult(name string, result session.ToolResult) {
	defer g.catch("OnToolResult")
	g.sink.OnToolResult(name, result)
}

func (g *guardedSink) OnText(kind TextKind, text string) {
	defer g.catch("OnText")
	g.sink.OnText(kind, text)
}
