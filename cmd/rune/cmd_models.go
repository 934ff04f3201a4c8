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

	"github.com/dustin/go-humanize"

	"github.com/elee1766/rune/src/aisdk"
)

// ModelsCmd manages model operations
type ModelsCmd struct {
	List   ModelsListCmd   `cmd:"" default:"1" help:"List available models"`
	Info   ModelsInfoCmd   `cmd:"" help:"Get information about a specific model"`
	Search ModelsSearchCmd `cmd:"" help:"Search for models by id or name"`
}

// ModelsListCmd lists available models
type ModelsListCmd struct {
	Format    string `enum:"table,json" default:"table" help:"Output format (table, json)"`
	WithCosts bool   `help:"Include pricing information"`
	ToolsOnly bool   `help:"Only show models that accept tool definitions"`
}

// Run executes the model list command
func (c *ModelsListCmd) Run(cli *CLI, logger *slog.Logger) error {
	client, err := cli.newClient(logger)
	if err != nil {
		return err
	}

	models, err := client.GetModels(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if c.ToolsOnly {
		models = filterModels(models, func(m *aisdk.ModelInfo) bool { return m.SupportsTools() })
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, models)
	}
	return printModelsTable(os.Stdout, models, c.WithCosts)
}

// ModelsInfoCmd gets information about a specific model
type ModelsInfoCmd struct {
	Model  string `arg:"" help:"Model ID"`
	Format string `enum:"table,json" default:"table" help:"Output format (table, json)"`
}

// Run executes the model info command
func (c *ModelsInfoCmd) Run(cli *CLI, logger *slog.Logger) error {
	client, err := cli.newClient(logger)
	if err != nil {
		return err
	}

	mc, err := client.Model(context.Background(), c.Model)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, mc.GetModelInfo())
	}
	return printModelTable(os.Stdout, mc.GetModelInfo())
}

// ModelsSearchCmd searches for models by name
type ModelsSearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	Format string `enum:"table,json" default:"table" help:"Output format (table, json)"`
}

// Run executes the model search command
func (c *ModelsSearchCmd) Run(cli *CLI, logger *slog.Logger) error {
	client, err := cli.newClient(logger)
	if err != nil {
		return err
	}

	models, err := client.GetModels(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	query := strings.ToLower(c.Query)
	matches := filterModels(models, func(m *aisdk.ModelInfo) bool {
		return strings.Contains(strings.ToLower(m.ID), query) ||
			strings.Contains(strings.ToLower(m.Name), query)
	})

	if len(matches) == 0 {
		fmt.Printf("No models found matching '%s'\n", c.Query)
		return nil
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, matches)
	}
	fmt.Printf("Found %d models matching '%s':\n\n", len(matches), c.Query)
	return printModelsTable(os.Stdout, matches, false)
}

func filterModels(models []*aisdk.ModelInfo, keep func(*aisdk.ModelInfo) bool) []*aisdk.ModelInfo {
	var out []*aisdk.ModelInfo
	for _, m := range models {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printModelsTable(out io.Writer, models []*aisdk.ModelInfo, withCosts bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if withCosts {
		fmt.Fprintln(w, "ID\tName\tContext\tTools\tPrompt Cost\tCompletion Cost")
		fmt.Fprintln(w, "---\t----\t-------\t-----\t-----------\t---------------")
		for _, model := range models {
			promptCost, completionCost := "N/A", "N/A"
			if model.Pricing != nil {
				if model.Pricing.Prompt != "" {
					promptCost = model.Pricing.Prompt
				}
				if model.Pricing.Completion != "" {
					completionCost = model.Pricing.Completion
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				model.ID, model.Name, humanize.Comma(int64(model.ContextLength)),
				yesNo(model.SupportsTools()), promptCost, completionCost)
		}
	} else {
		fmt.Fprintln(w, "ID\tName\tContext\tTools")
		fmt.Fprintln(w, "---\t----\t-------\t-----")
		for _, model := range models {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				model.ID, model.Name, humanize.Comma(int64(model.ContextLength)), yesNo(model.SupportsTools()))
		}
	}

	return w.Flush()
}

func printModelTable(out io.Writer, model *aisdk.ModelInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ID:\t%s\n", model.ID)
	fmt.Fprintf(w, "Name:\t%s\n", model.Name)
	fmt.Fprintf(w, "Description:\t%s\n", model.Description)
	fmt.Fprintf(w, "Context Length:\t%s\n", humanize.Comma(int64(model.ContextLength)))
	fmt.Fprintf(w, "Tool Calling:\t%s\n", yesNo(model.SupportsTools()))

	if model.Pricing != nil {
		fmt.Fprintln(w, "\nPricing:")
		if model.Pricing.Prompt != "" {
			fmt.Fprintf(w, "  Prompt:\t%s per token\n", model.Pricing.Prompt)
		}
		if model.Pricing.Completion != "" {
			fmt.Fprintf(w, "  Completion:\t%s per token\n", model.Pricing.Completion)
		}
		if model.Pricing.Request != "" {
			fmt.Fprintf(w, "  Request:\t%s per request\n", model.Pricing.Request)
		}
	}

	if model.Architecture != nil {
		fmt.Fprintln(w, "\nArchitecture:")
		if len(model.Architecture.InputModalities) > 0 {
			fmt.Fprintf(w, "  Input:\t%s\n", strings.Join(model.Architecture.InputModalities, ", "))
		}
		if len(model.Architecture.OutputModalities) > 0 {
			fmt.Fprintf(w, "  Output:\t%s\n", strings.Join(model.Architecture.OutputModalities, ", "))
		}
		if model.Architecture.Tokenizer != "" {
			fmt.Fprintf(w, "  Tokenizer:\t%s\n", model.Architecture.Tokenizer)
		}
	}

	return w.Flush()
}
