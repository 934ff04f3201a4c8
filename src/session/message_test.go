package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCallParams(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		wantKeys []string
		wantErr  bool
	}{
		{
			name:     "named arguments keep their order",
			args:     `{"path": "src", "recursive": true, "pattern": "*.go"}`,
			wantKeys: []string{"path", "recursive", "pattern"},
		},
		{
			name:     "positional arguments are keyed by index",
			args:     `["a.txt", 3]`,
			wantKeys: []string{"arg0", "arg1"},
		},
		{
			name:     "empty arguments",
			args:     ``,
			wantKeys: nil,
		},
		{
			name:     "null arguments",
			args:     `null`,
			wantKeys: nil,
		},
		{
			name:    "malformed arguments",
			args:    `{"path": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := ToolCall{Name: "list_files", Arguments: json.RawMessage(tt.args)}
			params, err := call.Params()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var keys []string
			for pair := params.Oldest(); pair != nil; pair = pair.Next() {
				keys = append(keys, pair.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestToolCallObjectArguments(t *testing.T) {
	call := ToolCall{Name: "read_file", Arguments: json.RawMessage(`["x.txt"]`)}
	args, err := call.ObjectArguments()
	require.NoError(t, err)
	assert.JSONEq(t, `{"arg0": "x.txt"}`, string(args))

	call = ToolCall{Name: "list_todos"}
	args, err = call.ObjectArguments()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(args))
}

func TestToolResultEnvelope(t *testing.T) {
	t.Run("success carries data", func(t *testing.T) {
		r := ToolResult{Name: "list_files", Status: StatusSuccess, Data: json.RawMessage(`{"files":["a.txt"]}`)}
		assert.JSONEq(t, `{"status":"success","data":{"files":["a.txt"]}}`, r.Envelope())
	})

	t.Run("error carries message", func(t *testing.T) {
		msg := "Tool 'read_file' failed with FileNotFoundError: x.txt"
		data, _ := json.Marshal(msg)
		r := ToolResult{Name: "read_file", Status: StatusError, Data: data}
		assert.Equal(t, msg, r.Text())
		assert.JSONEq(t, `{"status":"error","error_message":"`+msg+`"}`, r.Envelope())
	})

	t.Run("success without data", func(t *testing.T) {
		r := ToolResult{Name: "noop", Status: StatusSuccess}
		assert.JSONEq(t, `{"status":"success","data":null}`, r.Envelope())
	})
}

func TestValidate(t *testing.T) {
	ok := []Message{
		NewMessage(1, RoleUser, "hi"),
		NewMessage(2, RoleAssistant, "hello"),
	}
	assert.NoError(t, Validate(ok))

	badSeq := []Message{
		NewMessage(2, RoleUser, "hi"),
		NewMessage(2, RoleAssistant, "hello"),
	}
	assert.ErrorIs(t, Validate(badSeq), ErrInvalidSequence)

	badRole := []Message{NewMessage(1, Role("system"), "x")}
	assert.ErrorIs(t, Validate(badRole), ErrInvalidRole)
}

func TestNextSequence(t *testing.T) {
	assert.Equal(t, int64(1), NextSequence(nil))
	assert.Equal(t, int64(8), NextSequence([]Message{NewMessage(7, RoleUser, "x")}))
}
