package runeagent

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/rune/src/agent"
)

func TestFormatSchemaForPrompt(t *testing.T) {
	tests := []struct {
		name     string
		schema   *jsonschema.Schema
		expected []string
	}{
		{
			name: "simple string schema",
			schema: &jsonschema.Schema{
				Type:        &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
				Description: ptr("A simple string field"),
			},
			expected: []string{"# A simple string field", "string"},
		},
		{
			name: "object with properties",
			schema: &jsonschema.Schema{
				Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("object"))},
				Properties: map[string]jsonschema.SchemaOrBool{
					"name": {TypeObject: &jsonschema.Schema{
						Type:        &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
						Description: ptr("The name"),
					}},
					"age": {TypeObject: &jsonschema.Schema{
						Type:        &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("integer"))},
						Description: ptr("The age"),
					}},
				},
				Required: []string{"name"},
			},
			expected: []string{
				"object (required: name)",
				"  age: integer # The age\n  name: string # The name",
			},
		},
		{
			name: "array with items",
			schema: &jsonschema.Schema{
				Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("array"))},
				Items: &jsonschema.Items{SchemaOrBool: &jsonschema.SchemaOrBool{
					TypeObject: &jsonschema.Schema{Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))}},
				}},
			},
			expected: []string{"array", "items: string"},
		},
		{
			name: "enum field",
			schema: &jsonschema.Schema{
				Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
				Enum: []interface{}{"pending", "in_progress", "completed"},
			},
			expected: []string{`string (enum: "pending" | "in_progress" | "completed")`},
		},
		{
			name:     "nil schema",
			schema:   nil,
			expected: []string{"unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSchemaForPrompt(tt.schema, 0)
			for _, expected := range tt.expected {
				assert.Contains(t, result, expected)
			}
		})
	}
}

type echoInput struct {
	Input string `json:"input" required:"true" description:"The input string"`
	Mode  string `json:"mode,omitempty" enum:"fast,slow"`
}

func TestFormatToolsForPrompt(t *testing.T) {
	toolbox := agent.NewToolbox()
	require.NoError(t, toolbox.RegisterTool(agent.MustNewGenericTool("test_tool", "A test tool for testing",
		func(ctx context.Context, in echoInput) (string, error) { return in.Input, nil })))

	result := formatToolsForPrompt(toolbox)
	for _, expected := range []string{
		"You have access to the following tools:",
		"Tool: test_tool",
		"Description: A test tool for testing",
		"Input Schema:",
		"object (required: input)",
		"input: string # The input string",
		`mode: string (enum: "fast" | "slow")`,
	} {
		assert.Contains(t, result, expected)
	}

	assert.Equal(t, "No tools available.", formatToolsForPrompt(agent.NewToolbox()))
	assert.Equal(t, "No tools available.", formatToolsForPrompt(nil))
}

func TestGenerateSystemPrompt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/repo/.git", 0o755))
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	result := GenerateSystemPrompt(agent.NewToolbox(), PromptConfig{Fs: fs, WorkingDir: "/repo", Now: now})
	for _, section := range []string{
		"You are rune",
		"# Tone and style",
		"# Following conventions",
		"# Tool usage policy",
		"Working directory: /repo",
		"Is directory a git repo: Yes",
		"Today's date: 2025-03-14",
		"No tools available.",
	} {
		assert.Contains(t, result, section)
	}

	result = GenerateSystemPrompt(nil, PromptConfig{Fs: fs, WorkingDir: "/elsewhere", Now: now})
	assert.Contains(t, result, "Is directory a git repo: No")
}

func ptr[T any](v T) *T {
	return &v
}
