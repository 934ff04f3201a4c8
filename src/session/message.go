package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleThinking   Role = "thinking"
	RoleToolCall   Role = "tool-call"
	RoleToolResult Role = "tool-result"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleThinking, RoleToolCall, RoleToolResult:
		return true
	}
	return false
}

// InterruptedText is the content of the marker message appended when a turn
// is cancelled.
const InterruptedText = "User interrupted."

// Message is one entry of a conversation. Messages are values and are never
// modified after they are appended to a history.
type Message struct {
	ID         string      `json:"id"`
	Sequence   int64       `json:"sequence"`
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ToolCall is a request from the model to run a registered tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CompactJSON returns raw without insignificant whitespace. Invalid JSON is
// returned unchanged.
func CompactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Params is the ordered argument mapping of a tool call.
type Params = orderedmap.OrderedMap[string, any]

// NewParams returns an empty parameter mapping.
func NewParams() *Params {
	return orderedmap.New[string, any]()
}

// Params decodes the call arguments preserving their order. A JSON array is
// treated as positional arguments and keyed arg0, arg1, ...
func (tc ToolCall) Params() (*Params, error) {
	params := NewParams()
	raw := bytes.TrimSpace(tc.Arguments)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return params, nil
	}

	if raw[0] == '[' {
		var positional []any
		if err := json.Unmarshal(raw, &positional); err != nil {
			return nil, fmt.Errorf("failed to decode positional arguments: %w", err)
		}
		for i, v := range positional {
			params.Set(fmt.Sprintf("arg%d", i), v)
		}
		return params, nil
	}

	if err := json.Unmarshal(raw, params); err != nil {
		return nil, fmt.Errorf("failed to decode arguments: %w", err)
	}
	return params, nil
}

// ObjectArguments returns the arguments as a JSON object, converting
// positional arguments to their argN keys.
func (tc ToolCall) ObjectArguments() (json.RawMessage, error) {
	raw := bytes.TrimSpace(tc.Arguments)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	if raw[0] == '{' {
		return raw, nil
	}
	params, err := tc.Params()
	if err != nil {
		return nil, err
	}
	return json.Marshal(params)
}

// ResultStatus is the outcome of a tool invocation.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// ToolResult is the normalized outcome of one tool call. Data is always
// present; on error it holds the error text as a JSON string.
type ToolResult struct {
	CallID  string          `json:"call_id"`
	Name    string          `json:"name"`
	Status  ResultStatus    `json:"status"`
	Data    json.RawMessage `json:"data"`
	Display string          `json:"display,omitempty"`
}

// IsError reports whether the result carries a failure.
func (r ToolResult) IsError() bool {
	return r.Status == StatusError
}

// Text returns Data as plain text, unquoting JSON strings.
func (r ToolResult) Text() string {
	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s
	}
	return string(r.Data)
}

type successEnvelope struct {
	Status ResultStatus    `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Status       ResultStatus `json:"status"`
	ErrorMessage string       `json:"error_message"`
}

// Envelope serializes the result for the model. Successes carry the data,
// failures carry the error message.
func (r ToolResult) Envelope() string {
	var (
		out []byte
		err error
	)
	if r.IsError() {
		out, err = json.Marshal(errorEnvelope{Status: StatusError, ErrorMessage: r.Text()})
	} else {
		data := r.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		out, err = json.Marshal(successEnvelope{Status: StatusSuccess, Data: data})
	}
	if err != nil {
		// Data was not valid JSON; fall back to carrying it as text.
		out, _ = json.Marshal(errorEnvelope{Status: StatusError, ErrorMessage: string(r.Data)})
	}
	return string(out)
}

// IsBlank reports whether s has no visible content.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
