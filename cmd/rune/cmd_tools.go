package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/executor"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent"
	"github.com/elee1766/rune/src/session"
)

// ToolsCmd represents all tool-related commands
type ToolsCmd struct {
	List ToolsListCmd `cmd:"" default:"1" help:"List available tools"`
	Show ToolsShowCmd `cmd:"" help:"Show tool details and parameter schema"`
	Run  ToolsRunCmd  `cmd:"" help:"Execute a tool directly in the current directory"`
}

// ToolsListCmd lists available tools
type ToolsListCmd struct {
	Format   string `short:"f" enum:"table,json" default:"table" help:"Output format"`
	Category string `short:"c" help:"Filter by category"`
}

func (c *ToolsListCmd) Run(cli *CLI, logger *slog.Logger) error {
	tb, _, err := cli.newToolbox(logger)
	if err != nil {
		return err
	}

	var tools []runeagent.ToolInfo
	for _, info := range runeagent.DescribeTools(tb) {
		if c.Category == "" || info.Category == c.Category {
			tools = append(tools, info)
		}
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, tools)
	}
	return printToolsTable(os.Stdout, tools)
}

// ToolsShowCmd shows tool details
type ToolsShowCmd struct {
	Name string `arg:"" help:"Tool name"`
}

func (c *ToolsShowCmd) Run(cli *CLI, logger *slog.Logger) error {
	tb, _, err := cli.newToolbox(logger)
	if err != nil {
		return err
	}
	tool, ok := tb.GetTool(c.Name)
	if !ok {
		return fmt.Errorf("%w: unknown tool %q", errUsage, c.Name)
	}
	return printToolDetails(os.Stdout, tool)
}

// ToolsRunCmd executes a tool the way a turn would.
type ToolsRunCmd struct {
	Name  string `arg:"" help:"Tool name"`
	Input string `arg:"" optional:"" help:"Arguments as a JSON object or array (default: {})"`
}

func (c *ToolsRunCmd) Run(cli *CLI, logger *slog.Logger) error {
	tb, ws, err := cli.newToolbox(logger)
	if err != nil {
		return err
	}

	args := strings.TrimSpace(c.Input)
	if args == "" {
		args = "{}"
	}
	if !json.Valid([]byte(args)) {
		return fmt.Errorf("%w: arguments are not valid JSON", errUsage)
	}

	sc := session.NewContext(ws.Root())
	call := session.ToolCall{ID: "cli", Name: c.Name, Arguments: json.RawMessage(args)}
	result := executor.NewInvoker(tb, executor.NopSink{}, logger).Invoke(context.Background(), sc, call)

	if result.IsError() {
		return fmt.Errorf("%s", result.Text())
	}
	if result.Display != "" {
		fmt.Println(result.Display)
		return nil
	}
	var pretty any
	if err := json.Unmarshal(result.Data, &pretty); err != nil {
		fmt.Println(result.Text())
		return nil
	}
	return printJSON(os.Stdout, pretty)
}

// newToolbox builds the tool set for the current directory.
func (cli *CLI) newToolbox(logger *slog.Logger) (*agent.Toolbox, *rfs.Workspace, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := cli.loadConfig(root)
	if err != nil {
		return nil, nil, err
	}

	ws := rfs.NewWorkspace(afero.NewOsFs(), root)
	tb, err := runeagent.NewToolbox(runeagent.ToolsetConfig{
		Workspace:      ws,
		CommandTimeout: cfg.CommandTimeout(),
		PythonBinary:   cfg.Tools.PythonBinary,
		PythonTimeout:  cfg.PythonTimeout(),
		FetchMaxBytes:  cfg.Tools.FetchMaxBytes,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return tb, ws, nil
}

func printToolsTable(out io.Writer, tools []runeagent.ToolInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tSESSION\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Category, yesNo(t.NeedsSession), firstLine(t.Description))
	}
	return w.Flush()
}

func printToolDetails(out io.Writer, tool agent.Tool) error {
	fmt.Fprintf(out, "Name: %s\n", tool.GetName())
	fmt.Fprintf(out, "Uses session state: %s\n\n", yesNo(tool.NeedsSession()))
	fmt.Fprintln(out, strings.TrimSpace(tool.GetDescription()))
	fmt.Fprintln(out, "\nParameters:")
	return printJSON(out, tool.GetParameters())
}
