package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elee1766/rune/src/theme"
)

const maxEditorHeight = 10

type keyMap struct {
	Submit  key.Binding
	Newline key.Binding
	Prev    key.Binding
	Next    key.Binding
	Tab     key.Binding
	Accept  key.Binding
	EOF     key.Binding
	Abort   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("alt+enter"),
			key.WithHelp("esc+enter", "submit"),
		),
		Newline: key.NewBinding(
			key.WithKeys("enter", "ctrl+j"),
			key.WithHelp("enter", "newline"),
		),
		Prev: key.NewBinding(key.WithKeys("up")),
		Next: key.NewBinding(key.WithKeys("down")),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		Accept: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "accept suggestion"),
		),
		EOF: key.NewBinding(key.WithKeys("ctrl+d")),
		Abort: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "exit"),
		),
	}
}

// editorModel is the bubbletea model behind Editor.
type editorModel struct {
	textarea  textarea.Model
	keys      keyMap
	history   *History
	completer *Completer

	// entries is a snapshot of the history taken when the prompt opened.
	entries []string
	// index points into entries while browsing; len(entries) is the draft.
	index int
	draft string

	candidates []string
	width      int

	submitted string
	err       error
	done      bool
}

func newEditorModel(history *History, completer *Completer) *editorModel {
	ta := textarea.New()
	ta.Placeholder = "Ask anything, or /help"
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = theme.Notice
	ta.FocusedStyle.EndOfBuffer = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = theme.Prompt
	ta.BlurredStyle = ta.FocusedStyle
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	entries := history.Entries()
	return &editorModel{
		textarea:  ta,
		keys:      defaultKeyMap(),
		history:   history,
		completer: completer,
		entries:   entries,
		index:     len(entries),
		width:     80,
	}
}

func (m *editorModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textarea.SetWidth(msg.Width)
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.candidates = nil
	m.resize()
	return m, cmd
}

func (m *editorModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Abort):
		m.err = ErrAborted
		return m.finish(), true
	case key.Matches(msg, m.keys.EOF) && m.textarea.Value() == "":
		m.err = io.EOF
		return m.finish(), true
	case key.Matches(msg, m.keys.Submit):
		m.submitted = m.textarea.Value()
		return m.finish(), true
	case key.Matches(msg, m.keys.Newline):
		m.textarea.InsertString("\n")
		m.candidates = nil
		m.resize()
		return nil, true
	case key.Matches(msg, m.keys.Tab):
		value, candidates := m.completer.Complete(m.textarea.Value())
		m.setValue(value)
		if len(candidates) > 1 {
			m.candidates = candidates
		}
		return nil, true
	case key.Matches(msg, m.keys.Accept):
		if s := m.suggestion(); s != "" {
			m.setValue(s)
		}
		return nil, true
	case key.Matches(msg, m.keys.Prev) && m.textarea.Line() == 0:
		m.browse(-1)
		return nil, true
	case key.Matches(msg, m.keys.Next) && m.textarea.Line() == m.textarea.LineCount()-1:
		m.browse(1)
		return nil, true
	}
	return nil, false
}

// browse moves through history by delta, keeping the unsent draft.
func (m *editorModel) browse(delta int) {
	next := m.index + delta
	if next < 0 || next > len(m.entries) {
		return
	}
	if m.index == len(m.entries) {
		m.draft = m.textarea.Value()
	}
	m.index = next
	if next == len(m.entries) {
		m.setValue(m.draft)
		return
	}
	m.setValue(m.entries[next])
}

func (m *editorModel) setValue(v string) {
	m.textarea.SetValue(v)
	m.candidates = nil
	m.resize()
}

// suggestion is the newest history entry extending a single-line input.
func (m *editorModel) suggestion() string {
	value := m.textarea.Value()
	if strings.Contains(value, "\n") {
		return ""
	}
	return m.history.Suggest(value)
}

func (m *editorModel) resize() {
	height := m.textarea.LineCount()
	height = max(1, min(height, maxEditorHeight))
	m.textarea.SetHeight(height)
}

func (m *editorModel) finish() tea.Cmd {
	m.done = true
	m.textarea.Blur()
	return tea.Quit
}

func (m *editorModel) View() string {
	if m.done {
		if m.err != nil {
			return ""
		}
		return theme.Prompt.Render("> ") + strings.ReplaceAll(m.submitted, "\n", "\n  ") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	if len(m.candidates) > 0 {
		b.WriteString(theme.Notice.Render(strings.Join(m.candidates, "  ")))
		b.WriteString("\n")
	}
	if s := m.suggestion(); s != "" {
		b.WriteString(theme.Notice.Render("ctrl+f: " + firstLine(s)))
		b.WriteString("\n")
	}
	b.WriteString(theme.Notice.Faint(true).Render(m.help()))
	return b.String()
}

func (m *editorModel) help() string {
	var parts []string
	for _, k := range []key.Binding{m.keys.Submit, m.keys.Newline, m.keys.Tab, m.keys.Abort} {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

func firstLine(s string) string {
	line, _, more := strings.Cut(s, "\n")
	if more {
		return line + " …"
	}
	return line
}

// EditorOptions configures an Editor.
type EditorOptions struct {
	In        io.Reader
	Out       io.Writer
	History   *History
	Completer *Completer
}

// Editor reads multi-line submissions in a terminal. Enter inserts a
// newline and Esc+Enter submits.
type Editor struct {
	opts EditorOptions
}

// NewEditor returns an editor reading from opts.In.
func NewEditor(opts EditorOptions) *Editor {
	return &Editor{opts: opts}
}

// Read runs the editor until the user submits, aborts or ends input.
func (e *Editor) Read(ctx context.Context) (string, error) {
	m := newEditorModel(e.opts.History, e.opts.Completer)
	p := tea.NewProgram(m,
		tea.WithInput(e.opts.In),
		tea.WithOutput(e.opts.Out),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	if m.err != nil {
		return "", m.err
	}
	e.opts.History.record(m.submitted)
	return m.submitted, nil
}
