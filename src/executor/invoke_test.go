package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/session"
)

type cwdInput struct{}

type cwdOutput struct {
	Dir string `json:"dir"`
}

func (o cwdOutput) Display() string { return "cwd is " + o.Dir }

func TestInvokerSuccess(t *testing.T) {
	tb := agent.NewToolbox()
	tool, err := agent.NewSessionTool("cwd", "Print working dir",
		func(ctx context.Context, sc *session.Context, _ cwdInput) (cwdOutput, error) {
			return cwdOutput{Dir: sc.WorkingDir()}, nil
		})
	require.NoError(t, err)
	require.NoError(t, tb.RegisterTool(tool))

	sink := &recordingSink{}
	inv := NewInvoker(tb, sink, nil)
	result := inv.Invoke(context.Background(), session.NewContext("/work"), callOf("c1", "cwd", ""))

	assert.Equal(t, session.StatusSuccess, result.Status)
	assert.Equal(t, "c1", result.CallID)
	assert.JSONEq(t, `{"dir":"/work"}`, string(result.Data))
	assert.Equal(t, "cwd is /work", result.Display)
	assert.JSONEq(t, `{"status":"success","data":{"dir":"/work"}}`, result.Envelope())
	assert.Equal(t, []string{"call:cwd", "result:cwd:success"}, sink.snapshot())
}

func TestInvokerSessionRequired(t *testing.T) {
	tb := agent.NewToolbox()
	tool, err := agent.NewSessionTool("cwd", "Print working dir",
		func(ctx context.Context, sc *session.Context, _ cwdInput) (cwdOutput, error) {
			return cwdOutput{Dir: sc.WorkingDir()}, nil
		})
	require.NoError(t, err)
	require.NoError(t, tb.RegisterTool(tool))

	result := NewInvoker(tb, nil, nil).Invoke(context.Background(), nil, callOf("c1", "cwd", "{}"))
	assert.True(t, result.IsError())
	assert.Contains(t, result.Text(), "Tool 'cwd' failed with Error:")
}

func TestInvokerBadArguments(t *testing.T) {
	tb := testToolbox(t)
	sink := &recordingSink{}
	inv := NewInvoker(tb, sink, nil)

	result := inv.Invoke(context.Background(), session.NewContext("/"), callOf("c1", "read_file", `{"path":`))
	assert.True(t, result.IsError())
	assert.True(t, strings.HasPrefix(result.Text(), "Tool 'read_file' failed with ValueError:"))
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, 1, sink.results)
}

func TestInvokerTimeoutKind(t *testing.T) {
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool(agent.MustNewGenericTool("wait", "Waits",
		func(ctx context.Context, _ struct{}) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, time.Millisecond)
			defer cancel()
			<-ctx.Done()
			return "", ctx.Err()
		})))

	result := NewInvoker(tb, nil, nil).Invoke(context.Background(), nil, callOf("c1", "wait", "{}"))
	assert.Equal(t, "Tool 'wait' failed with TimeoutError: context deadline exceeded", result.Text())
}

func TestFailureResult(t *testing.T) {
	result := FailureResult(callOf("c9", "grep", "{}"), agent.NewToolError(agent.KindNotFound, "pattern not found"))
	assert.Equal(t, "c9", result.CallID)
	assert.Equal(t, session.StatusError, result.Status)
	assert.Equal(t, "Tool 'grep' failed with NotFoundError: pattern not found", result.Display)

	var text string
	require.NoError(t, json.Unmarshal(result.Data, &text))
	assert.Equal(t, result.Display, text)
}

type collectingProcessor struct {
	mu     sync.Mutex
	events []ConversationEvent
	closed bool
}

func (p *collectingProcessor) Process(event ConversationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *collectingProcessor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type panickingProcessor struct{}

func (panickingProcessor) Process(ConversationEvent) error { panic("render") }
func (panickingProcessor) Close() error                    { return nil }

func TestChannelEventSink(t *testing.T) {
	collector := &collectingProcessor{}
	sink := NewChannelEventSink(4, nil, panickingProcessor{}, collector)
	emitter := NewEventEmitter(sink, nil)

	params := session.NewParams()
	params.Set("path", "a.txt")
	emitter.OnToolCall("read_file", params)
	emitter.OnToolResult("read_file", session.ToolResult{Name: "read_file", Status: session.StatusSuccess})
	emitter.OnText(TextAssistant, "done")

	require.NoError(t, sink.Close())
	assert.True(t, collector.closed)
	require.Len(t, collector.events, 3)
	assert.Equal(t, EventToolCall, collector.events[0].GetType())
	assert.Equal(t, EventToolResult, collector.events[1].GetType())
	assert.Equal(t, EventText, collector.events[2].GetType())

	assert.ErrorIs(t, sink.Send(&TextEvent{}), ErrSinkClosed)
	assert.NoError(t, sink.Close())
	// Emitting after close drops the event.
	emitter.OnText(TextAssistant, "late")
}

func TestChannelEventSinkFlush(t *testing.T) {
	collector := &collectingProcessor{}
	sink := NewChannelEventSink(8, nil, collector)
	defer sink.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Send(&TextEvent{Kind: TextAssistant, Text: "x"}))
	}
	sink.Flush()

	collector.mu.Lock()
	assert.Len(t, collector.events, 5)
	collector.mu.Unlock()

	require.NoError(t, sink.Close())
	// Flushing a closed sink returns immediately.
	sink.Flush()
}

// gatedProcessor blocks on its first event until released.
type gatedProcessor struct {
	collectingProcessor
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedProcessor) Process(event ConversationEvent) error {
	p.once.Do(func() {
		close(p.started)
		<-p.release
	})
	return p.collectingProcessor.Process(event)
}

func TestChannelEventSinkDropsWhenFull(t *testing.T) {
	slow := &gatedProcessor{started: make(chan struct{}), release: make(chan struct{})}
	sink := NewChannelEventSink(1, nil, slow)

	require.NoError(t, sink.Send(&TextEvent{Kind: TextAssistant, Text: "first"}))
	<-slow.started
	require.NoError(t, sink.Send(&TextEvent{Kind: TextAssistant, Text: "second"}))

	// The processor is stuck and the buffer is full: Send returns at once.
	assert.ErrorIs(t, sink.Send(&TextEvent{Kind: TextAssistant, Text: "third"}), ErrSinkFull)
	assert.Equal(t, int64(1), sink.Dropped())

	close(slow.release)
	sink.Flush()
	require.NoError(t, sink.Close())

	slow.mu.Lock()
	defer slow.mu.Unlock()
	require.Len(t, slow.events, 2)
	assert.Equal(t, "second", slow.events[1].(*TextEvent).Text)
}

func TestConsoleEventProcessor(t *testing.T) {
	var out bytes.Buffer
	p := NewConsoleEventProcessor(ConsoleProcessorConfig{Out: &out, ShowParams: true, MaxResultLines: 2})

	params := session.NewParams()
	params.Set("path", "notes.txt")
	require.NoError(t, p.Process(&ToolCallEvent{Name: "read_file", Params: params}))
	require.NoError(t, p.Process(&ToolResultEvent{Name: "read_file", Result: session.ToolResult{
		Status:  session.StatusSuccess,
		Data:    json.RawMessage(`"one"`),
		Display: "one\ntwo\nthree\nfour",
	}}))
	require.NoError(t, p.Process(&ToolResultEvent{Name: "grep", Result: FailureResult(
		callOf("c2", "grep", "{}"), agent.NewToolError(agent.KindValue, "bad pattern"))}))
	require.NoError(t, p.Process(&TextEvent{Kind: TextThinking, Text: "secret"}))
	require.NoError(t, p.Process(&TextEvent{Kind: TextAssistant, Text: "All done."}))

	got := out.String()
	assert.Contains(t, got, "read_file")
	assert.Contains(t, got, "path=notes.txt")
	assert.Contains(t, got, "two")
	assert.NotContains(t, got, "three\n")
	assert.Contains(t, got, "2 more lines")
	assert.Contains(t, got, "Tool 'grep' failed with ValueError: bad pattern")
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "All done.")
}
