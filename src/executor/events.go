package executor

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elee1766/rune/src/session"
)

// EventType represents the type of turn event
type EventType string

const (
	EventText       EventType = "text"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
)

// TextKind distinguishes model reasoning from answer text.
type TextKind string

const (
	TextThinking  TextKind = "thinking"
	TextAssistant TextKind = "assistant"
)

// ConversationEvent is the base interface for all turn events
type ConversationEvent interface {
	GetType() EventType
	GetTimestamp() time.Time
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) GetType() EventType      { return e.Type }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// TextEvent carries thinking or assistant text.
type TextEvent struct {
	BaseEvent
	Kind TextKind `json:"kind"`
	Text string   `json:"text"`
}

// ToolCallEvent is sent before a tool runs.
type ToolCallEvent struct {
	BaseEvent
	Name   string          `json:"name"`
	Params *session.Params `json:"params"`
}

// ToolResultEvent is sent after a tool finished, successfully or not.
type ToolResultEvent struct {
	BaseEvent
	Name   string             `json:"name"`
	Result session.ToolResult `json:"result"`
}

// EventSink is the interface for handling turn events
type EventSink interface {
	// Send sends an event to the sink
	Send(event ConversationEvent) error

	// Close flushes pending events and closes the sink
	Close() error
}

// EventProcessor processes turn events
type EventProcessor interface {
	// Process handles a single event
	Process(event ConversationEvent) error

	// Close cleans up any resources
	Close() error
}

// ChannelEventSink hands events to processors on a separate goroutine so
// rendering never runs on the turn's goroutine.
type ChannelEventSink struct {
	events     chan ConversationEvent
	processors []EventProcessor
	done       chan struct{}
	logger     *slog.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewChannelEventSink creates a new channel-based event sink
func NewChannelEventSink(bufferSize int, logger *slog.Logger, processors ...EventProcessor) *ChannelEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	sink := &ChannelEventSink{
		events:     make(chan ConversationEvent, bufferSize),
		processors: processors,
		done:       make(chan struct{}),
		logger:     logger.With("component", "event_sink"),
	}

	go sink.processEvents()

	return sink
}

// Send queues an event without blocking the caller. When the buffer is
// full the event is dropped and ErrSinkFull returned.
func (s *ChannelEventSink) Send(event ConversationEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.events <- event:
		return nil
	default:
		n := s.dropped.Add(1)
		s.logger.Warn("event buffer full, dropping event", "event", event.GetType(), "dropped", n)
		return ErrSinkFull
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (s *ChannelEventSink) Dropped() int64 {
	return s.dropped.Load()
}

// Flush blocks until every event queued before the call has been processed.
func (s *ChannelEventSink) Flush() {
	marker := flushMarker{done: make(chan struct{})}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	s.events <- marker
	s.mu.RUnlock()
	<-marker.done
}

// flushMarker is queued by Flush and never reaches processors.
type flushMarker struct {
	BaseEvent
	done chan struct{}
}

// Close drains queued events and closes all processors.
func (s *ChannelEventSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	<-s.done

	for _, p := range s.processors {
		if err := p.Close(); err != nil {
			s.logger.Warn("failed to close processor", "error", err)
		}
	}
	return nil
}

// processEvents processes events from the channel
func (s *ChannelEventSink) processEvents() {
	defer close(s.done)

	for event := range s.events {
		if m, ok := event.(flushMarker); ok {
			close(m.done)
			continue
		}
		for _, processor := range s.processors {
			s.process(processor, event)
		}
	}
}

func (s *ChannelEventSink) process(p EventProcessor, event ConversationEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event processor panicked", "event", event.GetType(), "panic", r)
		}
	}()
	if err := p.Process(event); err != nil {
		s.logger.Warn("failed to process event", "event", event.GetType(), "error", err)
	}
}
