package tool_runpython

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/session"
)

func TestRunPython(t *testing.T) {
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("python3 not available")
	}
	tool, err := Tool(Config{})
	require.NoError(t, err)
	dir := t.TempDir()

	tests := []struct {
		name     string
		input    RunPythonInput
		wantKind string
		wantMsg  string
		check    func(t *testing.T, out RunPythonOutput)
	}{
		{
			name:  "print",
			input: RunPythonInput{Code: "print('hello')"},
			check: func(t *testing.T, out RunPythonOutput) {
				require.Len(t, out.Outputs, 1)
				assert.Equal(t, "stdout", out.Outputs[0].Stream)
				assert.Equal(t, "hello", strings.TrimSpace(out.Outputs[0].Text))
			},
		},
		{
			name:  "working dir",
			input: RunPythonInput{Code: "import os; print(os.getcwd())"},
			check: func(t *testing.T, out RunPythonOutput) {
				require.Len(t, out.Outputs, 1)
				assert.Contains(t, out.Outputs[0].Text, dir[strings.LastIndex(dir, "/")+1:])
			},
		},
		{
			name:  "no output",
			input: RunPythonInput{Code: "x = 10"},
			check: func(t *testing.T, out RunPythonOutput) {
				assert.Empty(t, out.Outputs)
				assert.Equal(t, "(no output)", out.Display())
			},
		},
		{
			name:     "exception",
			input:    RunPythonInput{Code: "print(non_existent_var)"},
			wantKind: agent.KindValue,
			wantMsg:  "NameError",
		},
		{
			name:     "timeout",
			input:    RunPythonInput{Code: "import time; time.sleep(5)", Timeout: 0.2},
			wantKind: agent.KindTimeout,
			wantMsg:  "Execution timed out after 0.2 seconds.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := json.Marshal(tt.input)
			require.NoError(t, err)
			res, err := tool.Execute(context.Background(), session.NewContext(dir), args)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, agent.ErrorKind(err))
				assert.Contains(t, agent.ErrorMessage(err), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			var out RunPythonOutput
			require.NoError(t, json.Unmarshal(res.Data, &out))
			tt.check(t, out)
		})
	}
}

func TestRunPythonMissingInterpreter(t *testing.T) {
	tool, err := Tool(Config{Binary: "definitely-not-python-xyz"})
	require.NoError(t, err)
	_, err = tool.Execute(context.Background(), session.NewContext(t.TempDir()), json.RawMessage(`{"code":"print(1)"}`))
	require.Error(t, err)
	assert.Equal(t, agent.KindFileNotFound, agent.ErrorKind(err))
}
