// Package tool_todos exposes the session task list to the model.
package tool_todos

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constants
const (
	AddName    = "add_todos"
	UpdateName = "update_todos"
	ListName   = "list_todos"
)

const addTodosPrompt = `Creates entries in the structured task list for the current session. Use it to plan and track multi-step work so the user can follow progress.

## When to Use This Tool
1. Complex multi-step tasks that need 3 or more distinct steps.
2. The user explicitly asks for a todo list or gives several tasks at once.
3. After receiving new instructions, to capture the requirements.

## When NOT to Use This Tool
- A single, straightforward task.
- Purely conversational or informational requests.

## Task States
- pending: not yet started
- in_progress: currently being worked on (only one at a time)
- completed: finished successfully
- cancelled: no longer needed

New todos start as pending. Priority is low, medium (default) or high.`

const updateTodosPrompt = `Updates the status, priority or note of existing todos.

- Mark a todo in_progress when starting it and completed immediately after finishing it.
- Each update needs the id of an existing todo; include only the fields to change.
- If any id is unknown, no todo is changed.`

const listTodosPrompt = `Lists the todos of the current session in creation order, optionally filtered by status and priority.`

// NewTodo is one todo to create.
type NewTodo struct {
	Title    string `json:"title" required:"true" description:"Short description of the task"`
	Priority string `json:"priority,omitempty" enum:"low,medium,high" description:"Priority (default medium)"`
	Note     string `json:"note,omitempty" description:"Optional details"`
}

// AddTodosInput represents the parameters for add_todos
type AddTodosInput struct {
	Todos []NewTodo `json:"todos" required:"true" description:"The todos to add"`
}

// AddTodosOutput represents the response from add_todos
type AddTodosOutput struct {
	AddedTodos []session.Todo `json:"added_todos"`
	all        []session.Todo
}

func (o AddTodosOutput) Display() string { return Render(o.all) }

// TodoChange is one update to an existing todo.
type TodoChange struct {
	ID       string `json:"id" required:"true" description:"Id of the todo to change"`
	Status   string `json:"status,omitempty" enum:"pending,in_progress,completed,cancelled" description:"New status"`
	Priority string `json:"priority,omitempty" enum:"low,medium,high" description:"New priority"`
	Note     string `json:"note,omitempty" description:"New note"`
}

// UpdateTodosInput represents the parameters for update_todos
type UpdateTodosInput struct {
	Updates []TodoChange `json:"updates" required:"true" description:"The changes to apply"`
}

// UpdateTodosOutput represents the response from update_todos
type UpdateTodosOutput struct {
	UpdatedTodos []session.Todo `json:"updated_todos"`
	all          []session.Todo
}

func (o UpdateTodosOutput) Display() string { return Render(o.all) }

// ListTodosInput represents the parameters for list_todos
type ListTodosInput struct {
	Status   string `json:"status,omitempty" enum:"pending,in_progress,completed,cancelled" description:"Only list todos with this status"`
	Priority string `json:"priority,omitempty" enum:"low,medium,high" description:"Only list todos with this priority"`
}

// ListTodosOutput represents the response from list_todos
type ListTodosOutput struct {
	Todos []session.Todo `json:"todos"`
}

func (o ListTodosOutput) Display() string { return Render(o.Todos) }

// Tools returns add_todos, update_todos and list_todos.
func Tools() ([]agent.Tool, error) {
	add, err := agent.NewSessionTool(AddName, addTodosPrompt, addTodos)
	if err != nil {
		return nil, err
	}
	update, err := agent.NewSessionTool(UpdateName, updateTodosPrompt, updateTodos)
	if err != nil {
		return nil, err
	}
	list, err := agent.NewSessionTool(ListName, listTodosPrompt, listTodos)
	if err != nil {
		return nil, err
	}
	return []agent.Tool{add, update, list}, nil
}

func addTodos(ctx context.Context, sc *session.Context, input AddTodosInput) (AddTodosOutput, error) {
	added := make([]session.Todo, 0, len(input.Todos))
	for i, t := range input.Todos {
		if strings.TrimSpace(t.Title) == "" {
			return AddTodosOutput{}, agent.ValueErrorf("todos[%d]: title must not be empty", i)
		}
		priority, err := parsePriority(t.Priority, session.PriorityMedium)
		if err != nil {
			return AddTodosOutput{}, err
		}
		added = append(added, session.Todo{
			ID:       uuid.NewString()[:8],
			Title:    t.Title,
			Status:   session.TodoPending,
			Priority: priority,
			Note:     t.Note,
		})
	}
	sc.AddTodos(added...)
	toolsutil.GetLogger().Debug("todos added", "count", len(added))
	return AddTodosOutput{AddedTodos: added, all: sc.Todos()}, nil
}

func updateTodos(ctx context.Context, sc *session.Context, input UpdateTodosInput) (UpdateTodosOutput, error) {
	updates := make([]session.TodoUpdate, 0, len(input.Updates))
	for _, u := range input.Updates {
		status, err := parseStatus(u.Status)
		if err != nil {
			return UpdateTodosOutput{}, err
		}
		priority, err := parsePriority(u.Priority, "")
		if err != nil {
			return UpdateTodosOutput{}, err
		}
		updates = append(updates, session.TodoUpdate{ID: u.ID, Status: status, Priority: priority, Note: u.Note})
	}

	updated, err := sc.UpdateTodos(updates...)
	if err != nil {
		return UpdateTodosOutput{}, &agent.ToolError{Kind: agent.KindNotFound, Message: err.Error(), Cause: err}
	}
	return UpdateTodosOutput{UpdatedTodos: updated, all: sc.Todos()}, nil
}

func listTodos(ctx context.Context, sc *session.Context, input ListTodosInput) (ListTodosOutput, error) {
	status, err := parseStatus(input.Status)
	if err != nil {
		return ListTodosOutput{}, err
	}
	priority, err := parsePriority(input.Priority, "")
	if err != nil {
		return ListTodosOutput{}, err
	}

	todos := []session.Todo{}
	for _, t := range sc.Todos() {
		if status != "" && t.Status != status {
			continue
		}
		if priority != "" && t.Priority != priority {
			continue
		}
		todos = append(todos, t)
	}
	return ListTodosOutput{Todos: todos}, nil
}

func parseStatus(s string) (session.TodoStatus, error) {
	switch st := session.TodoStatus(s); st {
	case "", session.TodoPending, session.TodoInProgress, session.TodoCompleted, session.TodoCancelled:
		return st, nil
	}
	return "", agent.ValueErrorf("invalid status '%s'", s)
}

func parsePriority(s string, def session.TodoPriority) (session.TodoPriority, error) {
	switch p := session.TodoPriority(s); p {
	case "":
		return def, nil
	case session.PriorityLow, session.PriorityMedium, session.PriorityHigh:
		return p, nil
	}
	return "", agent.ValueErrorf("invalid priority '%s'", s)
}

var (
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	cancelStyle  = lipgloss.NewStyle().Faint(true)
	noteStyle    = lipgloss.NewStyle().Faint(true)
	urgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	emptyStyle   = lipgloss.NewStyle().Italic(true).Faint(true)
	pendingStyle = lipgloss.NewStyle()
)

// Render draws todos as a checklist.
func Render(todos []session.Todo) string {
	if len(todos) == 0 {
		return emptyStyle.Render("○ No tasks in the list.")
	}

	completed := 0
	for _, t := range todos {
		if t.Status == session.TodoCompleted {
			completed++
		}
	}

	lines := []string{titleStyle.Render(fmt.Sprintf("TODOs (%d/%d completed)", completed, len(todos)))}
	for _, t := range todos {
		glyph, style := "○", pendingStyle
		switch t.Status {
		case session.TodoCompleted:
			glyph, style = "✔", doneStyle
		case session.TodoInProgress:
			glyph, style = "◉", activeStyle
		case session.TodoCancelled:
			glyph, style = "-", cancelStyle
		}
		line := style.Render(glyph + " " + t.Title)
		if t.Priority == session.PriorityHigh && t.Status != session.TodoCompleted && t.Status != session.TodoCancelled {
			line += urgentStyle.Render(" *")
		}
		lines = append(lines, line)
		if t.Note != "" {
			lines = append(lines, noteStyle.Render("  └─ Note: "+t.Note))
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
