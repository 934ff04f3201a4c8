package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/elee1766/rune/src/runeagent/tools/tool_todos"
	"github.com/elee1766/rune/src/session"
	"github.com/elee1766/rune/src/theme"
)

// SessionsCmd inspects stored sessions
type SessionsCmd struct {
	List SessionsListCmd `cmd:"" default:"1" help:"List stored sessions, newest first"`
	Show SessionsShowCmd `cmd:"" help:"Print the transcript of a session"`
}

// SessionsListCmd lists stored sessions
type SessionsListCmd struct {
	Format string `enum:"table,json" default:"table" help:"Output format (table, json)"`
}

// Run executes the sessions list command
func (c *SessionsListCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx := context.Background()
	a, err := cli.newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errSession, err)
	}
	if c.Format == "json" {
		return printJSON(os.Stdout, sessions)
	}
	if len(sessions) == 0 {
		fmt.Printf("No sessions in %s\n", a.SessionDir())
		return nil
	}
	return printSessions(os.Stdout, sessions)
}

// SessionsShowCmd prints a session transcript
type SessionsShowCmd struct {
	Path string `arg:"" type:"path" help:"Session file"`
}

// Run executes the sessions show command
func (c *SessionsShowCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx := context.Background()
	a, err := cli.newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.OpenSession(ctx, c.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", errSession, err)
	}
	printTranscript(os.Stdout, sess)
	return nil
}

func printSessions(out io.Writer, sessions []session.Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL\tMESSAGES\tUPDATED\tPATH")
	for _, s := range sessions {
		model := s.Model
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.Name, model, s.MessageCount, humanize.Time(s.UpdatedAt), s.Path)
	}
	return w.Flush()
}

func printTranscript(out io.Writer, sess *session.Session) {
	fmt.Fprintln(out, theme.Title.Render(sess.Name))
	fmt.Fprintln(out, theme.Notice.Render(fmt.Sprintf("model %s, created %s, working directory %s",
		sess.Model, humanize.Time(sess.CreatedAt), sess.Context.WorkingDir())))
	fmt.Fprintln(out)

	for _, m := range sess.Messages {
		switch m.Role {
		case session.RoleUser:
			fmt.Fprintln(out, theme.Prompt.Render("> ")+m.Content)
		case session.RoleThinking:
			fmt.Fprintln(out, theme.Notice.Render(m.Content))
		case session.RoleAssistant:
			fmt.Fprintln(out, m.Content)
		case session.RoleToolCall:
			if m.ToolCall != nil {
				fmt.Fprintf(out, "🔧 %s %s\n", theme.Title.Render(m.ToolCall.Name), theme.Notice.Render(string(m.ToolCall.Arguments)))
			}
		case session.RoleToolResult:
			if m.ToolResult == nil {
				continue
			}
			if m.ToolResult.IsError() {
				fmt.Fprintln(out, "   "+theme.Failure.Render("✗ "+firstLine(m.ToolResult.Text())))
			} else {
				fmt.Fprintln(out, "   "+theme.Passed.Render("✓ "+m.ToolResult.Name))
			}
		}
	}

	if todos := sess.Context.Todos(); len(todos) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, tool_todos.Render(todos))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
