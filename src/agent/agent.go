package agent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/elee1766/rune/src/aisdk"
	"github.com/elee1766/rune/src/session"
)

var ErrNoChoices = errors.New("no choices in response")

// Step is one unit of model output. A step without tool calls is the final
// answer of a turn.
type Step struct {
	Thinking  string
	Text      string
	ToolCalls []session.ToolCall
}

// Final reports whether the model is done with the turn.
func (s *Step) Final() bool {
	return len(s.ToolCalls) == 0
}

// Model produces the next step of a turn from the working history.
type Model interface {
	NextStep(ctx context.Context, history []session.Message) (*Step, error)
}

// Agent is a Model backed by a chat completion client.
type Agent struct {
	SystemPrompt string
	Model        aisdk.ModelClient
	Toolbox      *Toolbox
	Logger       *slog.Logger
}

var _ Model = (*Agent)(nil)

// NextStep sends the history to the model and decodes its reply.
func (a *Agent) NextStep(ctx context.Context, history []session.Message) (*Step, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	messages := make([]*aisdk.Message, 0, len(history)+1)
	if a.SystemPrompt != "" {
		messages = append(messages, &aisdk.Message{Role: "system", Content: a.SystemPrompt})
	}
	messages = append(messages, ToChatMessages(history)...)

	var chatTools []*aisdk.ChatTool
	if a.Toolbox != nil {
		chatTools = ToChatTools(a.Toolbox.Tools())
	}

	response, err := a.Model.CreateChatCompletion(ctx, &aisdk.ChatCompletionRequest{
		Messages: messages,
		Tools:    chatTools,
	})
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, ErrNoChoices
	}

	reply := response.Choices[0].Message
	step := &Step{
		Thinking: reply.Reasoning,
		Text:     reply.Content,
	}
	for _, tc := range reply.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		step.ToolCalls = append(step.ToolCalls, session.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: session.CompactJSON(tc.Function.Arguments),
		})
	}

	logger.Debug("model step",
		"finish_reason", response.Choices[0].FinishReason,
		"tool_calls", len(step.ToolCalls),
		"usage_total", response.Usage.TotalTokens)
	return step, nil
}

// ToChatMessages converts a session history to chat completion messages.
// Consecutive tool calls are folded into the preceding assistant message and
// thinking is not sent back.
func ToChatMessages(history []session.Message) []*aisdk.Message {
	out := make([]*aisdk.Message, 0, len(history))
	// assistant is the message that tool calls attach to, reset by anything
	// that closes an assistant step.
	var assistant *aisdk.Message

	for _, m := range history {
		switch m.Role {
		case session.RoleUser:
			assistant = nil
			out = append(out, &aisdk.Message{Role: "user", Content: m.Content, CreatedAt: m.CreatedAt})
		case session.RoleAssistant:
			assistant = &aisdk.Message{Role: "assistant", Content: m.Content, CreatedAt: m.CreatedAt}
			out = append(out, assistant)
		case session.RoleToolCall:
			if m.ToolCall == nil {
				continue
			}
			if assistant == nil {
				assistant = &aisdk.Message{Role: "assistant", CreatedAt: m.CreatedAt}
				out = append(out, assistant)
			}
			args, err := m.ToolCall.ObjectArguments()
			if err != nil {
				args = m.ToolCall.Arguments
			}
			assistant.ToolCalls = append(assistant.ToolCalls, aisdk.ToolCall{
				ID:   m.ToolCall.ID,
				Type: "function",
				Function: aisdk.FunctionCall{
					Name:      m.ToolCall.Name,
					Arguments: args,
				},
			})
		case session.RoleToolResult:
			if m.ToolResult == nil {
				continue
			}
			assistant = nil
			out = append(out, &aisdk.Message{
				Role:       "tool",
				Name:       m.ToolResult.Name,
				ToolCallID: m.ToolResult.CallID,
				Content:    m.ToolResult.Envelope(),
				CreatedAt:  m.CreatedAt,
			})
		case session.RoleThinking:
		}
	}
	return out
}
