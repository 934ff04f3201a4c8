package runeagent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/session"
)

func TestNewToolbox(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/a.txt", []byte("hello"), 0o644))

	toolbox, err := NewToolbox(ToolsetConfig{Workspace: rfs.NewWorkspace(fs, "/project")})
	require.NoError(t, err)

	expectedTools := []string{
		"list_files",
		"read_file",
		"read_chunk",
		"write_file",
		"edit_file",
		"grep",
		"get_metadata",
		"fetch_url",
		"run_command",
		"run_python",
		"add_todos",
		"update_todos",
		"list_todos",
	}
	assert.Len(t, toolbox.Tools(), len(expectedTools))
	for _, name := range expectedTools {
		_, ok := toolbox.GetTool(name)
		assert.True(t, ok, "expected tool %s to be registered", name)
	}

	res, err := toolbox.ExecuteTool(context.Background(), session.NewContext("/project"), session.ToolCall{
		ID:        "c1",
		Name:      "read_file",
		Arguments: json.RawMessage(`{"path":"a.txt"}`),
	})
	require.NoError(t, err)
	assert.Contains(t, string(res.Data), `"content":"hello"`)
}

func TestNewToolboxRequiresWorkspace(t *testing.T) {
	_, err := NewToolbox(ToolsetConfig{})
	assert.Error(t, err)
}

func TestDescribeTools(t *testing.T) {
	toolbox, err := NewToolbox(ToolsetConfig{Workspace: rfs.NewWorkspace(afero.NewMemMapFs(), "/")})
	require.NoError(t, err)

	infos := DescribeTools(toolbox)
	byName := map[string]ToolInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}

	assert.Equal(t, "filesystem", byName["grep"].Category)
	assert.Equal(t, "system", byName["run_command"].Category)
	assert.Equal(t, "network", byName["fetch_url"].Category)
	assert.False(t, byName["fetch_url"].NeedsSession)
	assert.Equal(t, "planning", byName["add_todos"].Category)
	assert.True(t, byName["add_todos"].NeedsSession)
	assert.Equal(t, "other", categorizeToolByName("mystery"))
	assert.Equal(t, "add_todos", infos[0].Name)
}

func TestTodoSchemaInlinesItems(t *testing.T) {
	toolbox, err := NewToolbox(ToolsetConfig{Workspace: rfs.NewWorkspace(afero.NewMemMapFs(), "/")})
	require.NoError(t, err)
	tool, ok := toolbox.GetTool("add_todos")
	require.True(t, ok)

	raw, err := json.Marshal(tool.GetParameters())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "$ref")
	assert.Contains(t, string(raw), `"title"`)

	chatTool := agent.ToChatTool(tool)
	assert.Equal(t, "function", chatTool.Type)
	assert.Equal(t, "add_todos", chatTool.Function.Name)
}
