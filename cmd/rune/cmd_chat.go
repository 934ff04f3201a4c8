package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/elee1766/rune/src/app"
	"github.com/elee1766/rune/src/prompt"
	"github.com/elee1766/rune/src/session"
)

// ChatCmd runs the interactive conversation loop.
type ChatCmd struct {
	Resume bool   `short:"r" help:"Continue a stored session; without a path, choose one from a list"`
	Path   string `arg:"" optional:"" type:"path" help:"Session file to continue (requires --resume)"`
}

// Run executes the chat command
func (c *ChatCmd) Run(cli *CLI, logger *slog.Logger) error {
	if c.Path != "" && !c.Resume {
		return fmt.Errorf("%w: a session path needs --resume", errUsage)
	}

	ctx := context.Background()
	a, err := cli.newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := c.session(ctx, a)
	if err != nil {
		return err
	}

	model := a.Config.Model
	if c.Resume && cli.Model == "" && sess.Model != "" {
		model = sess.Model
	}

	// Ctrl-C interrupts the running turn; at the prompt it ends the chat.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	chat, err := a.NewChat(ctx, app.ChatOptions{
		Session:    sess,
		Model:      model,
		Out:        os.Stdout,
		Interrupts: interrupts,
	})
	if err != nil {
		return err
	}
	defer chat.Close()

	logger.Info("chat started", "session", sess.Path, "model", model, "messages", len(sess.Messages))
	if err := chat.Run(ctx, newPromptReader(a, chat, logger)); err != nil {
		return err
	}
	if len(sess.Messages) > 0 {
		fmt.Printf("Session saved to %s\n", sess.Path)
	}
	return nil
}

// newPromptReader uses the multi-line editor on a terminal and plain lines
// otherwise.
func newPromptReader(a *app.App, chat *app.Chat, logger *slog.Logger) prompt.Reader {
	history, err := a.PromptHistory()
	if err != nil {
		logger.Warn("prompt history unavailable", "path", a.PromptHistoryPath(), "error", err)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return prompt.NewEditor(prompt.EditorOptions{
			In:        os.Stdin,
			Out:       os.Stdout,
			History:   history,
			Completer: chat.Completer(),
		})
	}
	return prompt.NewLineReader(os.Stdin, os.Stdout, history)
}

func (c *ChatCmd) session(ctx context.Context, a *app.App) (*session.Session, error) {
	if !c.Resume {
		return a.NewSession(time.Now()), nil
	}

	path := c.Path
	if path == "" {
		picked, err := pickSession(ctx, a)
		if err != nil {
			return nil, err
		}
		path = picked
	}

	sess, err := a.OpenSession(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSession, err)
	}
	return sess, nil
}

// pickSession asks the user to choose one of the stored sessions.
func pickSession(ctx context.Context, a *app.App) (string, error) {
	sessions, err := a.ListSessions(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errSession, err)
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("%w: no stored sessions in %s", errSession, a.SessionDir())
	}

	options := make([]huh.Option[string], 0, len(sessions))
	for _, s := range sessions {
		options = append(options, huh.NewOption(sessionLabel(s), s.Path))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a session to continue").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return selected, nil
}

func sessionLabel(s session.Summary) string {
	label := fmt.Sprintf("%s  %d messages, %s", s.Name, s.MessageCount, humanize.Time(s.UpdatedAt))
	if s.Model != "" {
		label += "  " + s.Model
	}
	return label
}
