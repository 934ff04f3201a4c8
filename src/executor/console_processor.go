package executor

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/elee1766/rune/src/session"
	"github.com/elee1766/rune/src/theme"
)

// ConsoleProcessorConfig configures the console event processor
type ConsoleProcessorConfig struct {
	Out io.Writer
	// Markdown renders assistant text with glamour.
	Markdown     bool
	ShowThinking bool
	ShowParams   bool
	// MaxResultPreview is the maximum width of a result preview line.
	MaxResultPreview int
	// MaxResultLines caps how many lines of a result are shown.
	MaxResultLines int
	WordWrap       int
}

var (
	toolNameStyle = theme.Title
	paramStyle    = theme.Notice
	thinkingStyle = lipgloss.NewStyle().Foreground(theme.Muted).Italic(true)
	successStyle  = theme.Passed
	failureStyle  = theme.Failure
)

// ConsoleEventProcessor renders turn events on a terminal.
type ConsoleEventProcessor struct {
	config   ConsoleProcessorConfig
	renderer *glamour.TermRenderer
}

var _ EventProcessor = (*ConsoleEventProcessor)(nil)

// NewConsoleEventProcessor creates a new console event processor
func NewConsoleEventProcessor(config ConsoleProcessorConfig) *ConsoleEventProcessor {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	if config.MaxResultPreview <= 0 {
		config.MaxResultPreview = 200
	}
	if config.MaxResultLines <= 0 {
		config.MaxResultLines = 12
	}
	if config.WordWrap <= 0 {
		config.WordWrap = 100
	}

	p := &ConsoleEventProcessor{config: config}
	if config.Markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(config.WordWrap),
		)
		if err == nil {
			p.renderer = r
		}
	}
	return p
}

// Process handles a single event
func (p *ConsoleEventProcessor) Process(event ConversationEvent) error {
	switch e := event.(type) {
	case *TextEvent:
		return p.processText(e)
	case *ToolCallEvent:
		return p.processToolCall(e)
	case *ToolResultEvent:
		return p.processToolResult(e)
	}
	return nil
}

// Close cleans up resources
func (p *ConsoleEventProcessor) Close() error {
	return nil
}

func (p *ConsoleEventProcessor) processText(e *TextEvent) error {
	if e.Kind == TextThinking {
		if !p.config.ShowThinking {
			return nil
		}
		_, err := fmt.Fprintln(p.config.Out, thinkingStyle.Render(strings.TrimSpace(e.Text)))
		return err
	}

	text := e.Text
	if p.renderer != nil {
		if rendered, err := p.renderer.Render(text); err == nil {
			text = rendered
		}
	}
	_, err := fmt.Fprintln(p.config.Out, strings.TrimRight(text, "\n"))
	return err
}

func (p *ConsoleEventProcessor) processToolCall(e *ToolCallEvent) error {
	line := "🔧 " + toolNameStyle.Render(e.Name)
	if p.config.ShowParams && e.Params != nil && e.Params.Len() > 0 {
		line += " " + paramStyle.Render(p.truncate(formatParams(e.Params)))
	}
	_, err := fmt.Fprintln(p.config.Out, line)
	return err
}

func (p *ConsoleEventProcessor) processToolResult(e *ToolResultEvent) error {
	text := e.Result.Display
	if text == "" {
		text = e.Result.Text()
	}

	if e.Result.IsError() {
		_, err := fmt.Fprintln(p.config.Out, "   "+failureStyle.Render("✗ "+p.truncate(firstLine(text))))
		return err
	}

	if _, err := fmt.Fprintln(p.config.Out, "   "+successStyle.Render("✓ "+e.Name)); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if isUnifiedDiff(text) {
		var b strings.Builder
		if err := quick.Highlight(&b, text, "diff", "terminal256", "monokai"); err == nil {
			text = b.String()
		}
	}
	for _, line := range p.preview(text) {
		if _, err := fmt.Fprintln(p.config.Out, "   "+line); err != nil {
			return err
		}
	}
	return nil
}

func (p *ConsoleEventProcessor) preview(text string) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	extra := 0
	if len(lines) > p.config.MaxResultLines {
		extra = len(lines) - p.config.MaxResultLines
		lines = lines[:p.config.MaxResultLines]
	}
	for i, line := range lines {
		lines[i] = p.truncate(line)
	}
	if extra > 0 {
		lines = append(lines, paramStyle.Render(fmt.Sprintf("… %d more lines", extra)))
	}
	return lines
}

func (p *ConsoleEventProcessor) truncate(s string) string {
	return ansi.Truncate(s, p.config.MaxResultPreview, "…")
}

func formatParams(params *session.Params) string {
	parts := make([]string, 0, params.Len())
	for pair := params.Oldest(); pair != nil; pair = pair.Next() {
		v := fmt.Sprint(pair.Value)
		v = strings.ReplaceAll(v, "\n", "⏎")
		parts = append(parts, pair.Key+"="+v)
	}
	return strings.Join(parts, " ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

func isUnifiedDiff(s string) bool {
	return strings.HasPrefix(s, "--- ") && strings.Contains(s, "\n+++ ")
}
