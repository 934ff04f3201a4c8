package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elee1766/rune/src/executor"
	"github.com/elee1766/rune/src/prompt"
	"github.com/elee1766/rune/src/session"
	"github.com/elee1766/rune/src/theme"
)

var ErrSaveFailed = errors.New("failed to save session")

const helpText = `Commands:
  /save [name]   save a snapshot of the session (default name: snapshot_<time>)
  /model [name]  show or switch the model used for the next turns
  /help          show this help
  /exit, /quit   leave rune
Enter starts a new line and Esc+Enter sends; Tab completes commands and
model names. Without a terminal, end a line with \ to continue it.
Press Ctrl-C during a turn to interrupt it; at the prompt it exits.`

var chatCommands = []string{"/save", "/model", "/help", "/exit", "/quit"}

// ChatOptions configures a Chat.
type ChatOptions struct {
	Session *session.Session
	Model   string
	Out     io.Writer
	// Interrupts delivers Ctrl-C. A nil channel never fires.
	Interrupts <-chan os.Signal
}

// Chat is the interactive loop over one session.
type Chat struct {
	app        *App
	controller *executor.Controller
	sink       *executor.ChannelEventSink
	session    *session.Session
	model      string
	out        io.Writer
	interrupts <-chan os.Signal
	completer  *prompt.Completer
}

// NewChat builds the turn controller and console renderer for a session.
func (a *App) NewChat(ctx context.Context, opts ChatOptions) (*Chat, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	model := opts.Model
	if model == "" {
		model = a.Config.Model
	}

	ag, err := a.Agent(ctx, model)
	if err != nil {
		return nil, err
	}

	console := executor.NewConsoleEventProcessor(executor.ConsoleProcessorConfig{
		Out:              out,
		Markdown:         a.Config.Display.Markdown,
		ShowThinking:     a.Config.Display.ShowThinking,
		ShowParams:       true,
		MaxResultPreview: a.Config.Display.MaxResultPreview,
	})
	sink := executor.NewChannelEventSink(256, a.Logger, console)

	controller, err := executor.NewController(executor.ControllerConfig{
		Model:            ag,
		Toolbox:          a.Toolbox,
		Sink:             executor.NewEventEmitter(sink, a.Logger),
		Logger:           a.Logger,
		RequestLimit:     a.Config.Turn.RequestLimit,
		MaxParallelTools: a.Config.Turn.MaxParallelTools,
	})
	if err != nil {
		sink.Close()
		return nil, err
	}

	opts.Session.Model = model
	return &Chat{
		app:        a,
		controller: controller,
		sink:       sink,
		session:    opts.Session,
		model:      model,
		out:        out,
		interrupts: opts.Interrupts,
		completer:  prompt.NewCompleter(chatCommands...),
	}, nil
}

// Session returns the session the chat works on.
func (c *Chat) Session() *session.Session {
	return c.session
}

// Model returns the current model name.
func (c *Chat) Model() string {
	return c.model
}

// Close flushes pending output.
func (c *Chat) Close() error {
	return c.sink.Close()
}

// Completer completes the chat's slash commands and, once Run has loaded
// them, the provider's model IDs.
func (c *Chat) Completer() *prompt.Completer {
	return c.completer
}

// Run reads submissions from in until input ends, /exit, an interrupt at the
// prompt or cancellation of ctx.
func (c *Chat) Run(ctx context.Context, in prompt.Reader) error {
	go c.loadModels(ctx)

	fmt.Fprintln(c.out, theme.Notice.Render(fmt.Sprintf("rune · %s · session %s · /help for commands", c.model, c.session.Name)))
	for {
		text, err := c.read(ctx, in)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, prompt.ErrAborted), ctx.Err() != nil:
			fmt.Fprintln(c.out)
			return nil
		case err != nil:
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "/") && !strings.Contains(text, "\n") {
			if quit := c.command(ctx, text); quit {
				return nil
			}
			continue
		}

		if _, err := c.Turn(ctx, text); err != nil {
			fmt.Fprintln(c.out, theme.Failure.Render("Error: "+err.Error()))
		}
	}
}

// read waits for the next submission. An interrupt while waiting aborts the
// prompt.
func (c *Chat) read(ctx context.Context, in prompt.Reader) (string, error) {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := in.Read(readCtx)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-c.interrupts:
		cancel()
		<-done
		return "", prompt.ErrAborted
	}
}

func (c *Chat) loadModels(ctx context.Context) {
	models, err := c.app.Provider.GetModels(ctx)
	if err != nil {
		c.app.Logger.Debug("failed to load models for completion", "error", err)
		return
	}
	ids := make([]string, 0, len(models))
	for _, m := range models {
		if m != nil && m.SupportsTools() {
			ids = append(ids, m.ID)
		}
	}
	c.completer.SetModels(ids)
}

// Turn runs one turn, installs its history into the session and saves it.
// A save failure is returned together with the outcome; the history stays
// in memory so /save can retry.
func (c *Chat) Turn(ctx context.Context, input string) (*executor.Outcome, error) {
	intr := executor.NewInterrupt()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-c.interrupts:
				if intr.Request() {
					fmt.Fprintln(c.out, theme.Warn.Render("Interrupting, waiting for running tools..."))
				}
			case <-done:
				return
			}
		}
	}()

	outcome, err := c.controller.Run(ctx, &executor.TurnRequest{
		History:   c.session.History(),
		Input:     input,
		Context:   c.session.Context,
		Interrupt: intr,
	})
	if err != nil {
		return nil, err
	}
	c.sink.Flush()

	if err := c.session.Replace(outcome.History); err != nil {
		return outcome, fmt.Errorf("failed to update session: %w", err)
	}
	c.notice(outcome)

	if err := c.app.SaveSession(context.WithoutCancel(ctx), c.session); err != nil {
		return outcome, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return outcome, nil
}

func (c *Chat) notice(o *executor.Outcome) {
	switch {
	case o.Status == executor.StatusFailed:
		fmt.Fprintln(c.out, theme.Failure.Render("Turn failed: "+o.Err.Error()))
	case o.Err != nil:
		fmt.Fprintln(c.out, theme.Warn.Render("Turn stopped: "+o.Err.Error()))
	case o.Status == executor.StatusInterrupted:
		fmt.Fprintln(c.out, theme.Warn.Render("Turn interrupted. Progress so far was kept."))
	}
}

// command handles a slash command and reports whether the loop should end.
func (c *Chat) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/exit", "/quit":
		return true
	case "/help":
		fmt.Fprintln(c.out, helpText)
	case "/save":
		var snapshot string
		if len(args) > 0 {
			snapshot = args[0]
		}
		path, err := c.app.Snapshot(ctx, c.session, snapshot)
		if err != nil {
			fmt.Fprintln(c.out, theme.Failure.Render("Error: "+err.Error()))
			return false
		}
		fmt.Fprintln(c.out, theme.Notice.Render("Session saved to "+path))
	case "/model":
		if len(args) == 0 {
			fmt.Fprintln(c.out, "Current model: "+c.model)
			return false
		}
		if err := c.SwitchModel(ctx, args[0]); err != nil {
			fmt.Fprintln(c.out, theme.Failure.Render("Error: "+err.Error()))
			return false
		}
		fmt.Fprintln(c.out, theme.Notice.Render("Switched model to "+c.model))
	default:
		fmt.Fprintln(c.out, theme.Warn.Render(fmt.Sprintf("Unknown command: %s. Type /help for a list of commands.", name)))
	}
	return false
}

// SwitchModel makes the following turns use modelName.
func (c *Chat) SwitchModel(ctx context.Context, modelName string) error {
	ag, err := c.app.Agent(ctx, modelName)
	if err != nil {
		return err
	}
	c.controller.SetModel(ag)
	c.model = modelName
	c.session.Model = modelName
	return nil
}
