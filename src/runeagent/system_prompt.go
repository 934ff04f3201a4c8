package runeagent

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/afero"
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/rune/src/agent"
)

const (
	mainPromptTemplate = `You are rune, an interactive CLI assistant for software engineering tasks. Use the instructions below and the tools available to you to assist the user.

IMPORTANT: You must NEVER generate or guess URLs for the user unless you are confident that the URLs are for helping the user with programming. You may use URLs provided by the user in their messages or local files.`

	toneAndStyleSection = `# Tone and style
You should be concise, direct, and to the point. When you run a non-trivial command, explain what it does and why you are running it, especially when it changes the user's system.
Your output is displayed on a command line interface and may use Github-flavored markdown.
Output text to communicate with the user; all text you output outside of tool use is displayed to the user. Never use tools or code comments to communicate with the user.
Keep your responses short. Answer the user's question directly, without preamble or postamble, unless the user asks for detail.`

	conventionsAndTasksSection = `# Following conventions
When making changes to files, first understand the file's code conventions. Mimic code style, use existing libraries and utilities, and follow existing patterns.
- NEVER assume that a given library is available. Check that the codebase already uses it first.
- When you edit a piece of code, first look at its surrounding context, especially its imports.
- Never introduce code that exposes or logs secrets and keys.

# Task management
Use add_todos, update_todos and list_todos to plan multi-step work and show progress. Mark todos completed as soon as they are done; do not batch completions.

# Doing tasks
- Plan the task with the todo tools if it has several steps.
- Use list_files, grep and read_file to understand the codebase before changing it.
- Prefer edit_file for targeted changes and write_file for new files.
- Verify the solution with the project's tests when possible. Never assume a specific test framework; check the README or the codebase.
- NEVER commit changes unless the user explicitly asks you to.`

	toolUsagePolicySection = `# Tool usage policy
- Tools run in the session working directory and cannot touch paths outside the project directory.
- run_command does not use a shell: pipes, redirections and globs are not available. Use cd to change the working directory for later calls.
- You can call multiple tools in a single response. Independent calls run in parallel, so batch them when possible.
- A failed tool call is reported back to you as text beginning with "Tool '<name>' failed with"; read it and adjust instead of repeating the same call.`

	finalInstructionsSection = `# Code references
When referencing specific functions or pieces of code include the pattern ` + "`file_path:line_number`" + ` so the user can navigate to the source location.`
)

// PromptConfig holds the dynamic facts rendered into the system prompt.
type PromptConfig struct {
	// Fs is used to detect a git checkout in WorkingDir.
	Fs         afero.Fs
	WorkingDir string
	Now        time.Time
}

func getEnvironmentInfo(cfg PromptConfig) string {
	isGitRepo := "No"
	if cfg.Fs != nil {
		if ok, _ := afero.DirExists(cfg.Fs, filepath.Join(cfg.WorkingDir, ".git")); ok {
			isGitRepo = "Yes"
		}
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	return fmt.Sprintf(`Here is useful information about the environment you are running in:
<env>
Working directory: %s
Is directory a git repo: %s
Platform: %s
OS Version: %s
Today's date: %s
</env>`, cfg.WorkingDir, isGitRepo, runtime.GOOS, getOSVersion(), now.Format("2006-01-02"))
}

func getOSVersion() string {
	info, err := host.Info()
	if err == nil {
		if info.PlatformVersion != "" {
			return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
		return info.Platform
	}
	return runtime.GOOS
}

func schemaType(t *jsonschema.Type) string {
	if t == nil {
		return "object"
	}
	if t.SimpleTypes != nil {
		return string(*t.SimpleTypes)
	}
	if len(t.SliceOfSimpleTypeValues) > 0 {
		return string(t.SliceOfSimpleTypeValues[0])
	}
	return "object"
}

func formatEnum(values []interface{}) string {
	strs := make([]string, 0, len(values))
	for _, e := range values {
		strs = append(strs, fmt.Sprintf(`"%v"`, e))
	}
	return fmt.Sprintf("(enum: %s)", strings.Join(strs, " | "))
}

// formatSchemaForPrompt renders a JSON schema as an indented outline.
func formatSchemaForPrompt(schema *jsonschema.Schema, indentLevel int) string {
	if schema == nil {
		return "unknown"
	}

	indent := strings.Repeat("  ", indentLevel)
	var parts []string

	if schema.Description != nil && *schema.Description != "" {
		parts = append(parts, fmt.Sprintf("%s# %s", indent, *schema.Description))
	}

	var details []string
	if len(schema.Enum) > 0 {
		details = append(details, formatEnum(schema.Enum))
	}
	if schema.Items == nil && len(schema.Properties) > 0 && len(schema.Required) > 0 {
		details = append(details, fmt.Sprintf("(required: %s)", strings.Join(schema.Required, ", ")))
	}
	line := indent + schemaType(schema.Type)
	if len(details) > 0 {
		line += " " + strings.Join(details, " ")
	}
	parts = append(parts, line)

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := schema.Properties[name].TypeObject
		if prop == nil {
			continue
		}
		propType := schemaType(prop.Type)
		if len(prop.Enum) > 0 {
			propType += " " + formatEnum(prop.Enum)
		}
		line := fmt.Sprintf("%s  %s: %s", indent, name, propType)
		if prop.Description != nil && *prop.Description != "" {
			line += " # " + *prop.Description
		}
		parts = append(parts, line)

		if prop.Items != nil && prop.Items.SchemaOrBool != nil && prop.Items.SchemaOrBool.TypeObject != nil {
			item := formatSchemaForPrompt(prop.Items.SchemaOrBool.TypeObject, indentLevel+2)
			parts = append(parts, fmt.Sprintf("%s    items: %s", indent, strings.TrimSpace(item)))
		}
	}

	if schema.Items != nil && schema.Items.SchemaOrBool != nil && schema.Items.SchemaOrBool.TypeObject != nil {
		item := formatSchemaForPrompt(schema.Items.SchemaOrBool.TypeObject, indentLevel+1)
		parts = append(parts, fmt.Sprintf("%s  items: %s", indent, strings.TrimSpace(item)))
	}

	return strings.Join(parts, "\n")
}

func formatToolsForPrompt(toolbox *agent.Toolbox) string {
	if toolbox == nil {
		return "No tools available."
	}
	tools := toolbox.Tools()
	if len(tools) == 0 {
		return "No tools available."
	}

	toolStrings := make([]string, 0, len(tools))
	for _, tool := range tools {
		parts := []string{
			fmt.Sprintf("Tool: %s", tool.GetName()),
			fmt.Sprintf("Description: %s", tool.GetDescription()),
			"Input Schema:",
		}
		if tool.GetParameters() != nil {
			parts = append(parts, formatSchemaForPrompt(tool.GetParameters(), 1))
		} else {
			parts = append(parts, "  # No schema defined")
		}
		toolStrings = append(toolStrings, strings.Join(parts, "\n"))
	}

	return fmt.Sprintf("You have access to the following tools:\n\n%s", strings.Join(toolStrings, "\n\n---\n\n"))
}

// GenerateSystemPrompt assembles all sections into the final system prompt
func GenerateSystemPrompt(toolbox *agent.Toolbox, cfg PromptConfig) string {
	sections := []string{
		mainPromptTemplate,
		toneAndStyleSection,
		conventionsAndTasksSection,
		toolUsagePolicySection,
		getEnvironmentInfo(cfg),
		finalInstructionsSection,
		formatToolsForPrompt(toolbox),
	}
	return strings.Join(sections, "\n\n")
}
