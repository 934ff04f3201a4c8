package session

import (
	"encoding/json"
	"fmt"
	"sync"
)

// TodoStatus tracks the lifecycle of a todo item.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
	TodoCancelled  TodoStatus = "cancelled"
)

// TodoPriority orders todo items by urgency.
type TodoPriority string

const (
	PriorityLow    TodoPriority = "low"
	PriorityMedium TodoPriority = "medium"
	PriorityHigh   TodoPriority = "high"
)

// Todo is one entry in the session task list.
type Todo struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Status   TodoStatus   `json:"status"`
	Priority TodoPriority `json:"priority"`
	Note     string       `json:"note,omitempty"`
}

// TodoUpdate changes the non-empty fields of an existing todo.
type TodoUpdate struct {
	ID       string
	Status   TodoStatus
	Priority TodoPriority
	Note     string
}

// ErrTodoNotFound is returned when an update names an unknown todo.
type ErrTodoNotFound struct {
	ID string
}

func (e *ErrTodoNotFound) Error() string {
	return fmt.Sprintf("Todo with id '%s' not found.", e.ID)
}

// Context is the mutable state a session carries between tool calls. It is
// passed explicitly to every tool that asks for it and is safe for the
// concurrent calls of one tool batch.
type Context struct {
	mu         sync.RWMutex
	workingDir string
	todos      []Todo
}

// NewContext creates a context rooted at workingDir.
func NewContext(workingDir string) *Context {
	return &Context{workingDir: workingDir}
}

func (c *Context) WorkingDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workingDir
}

func (c *Context) SetWorkingDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workingDir = dir
}

// Todos returns a copy of the task list in insertion order.
func (c *Context) Todos() []Todo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Todo, len(c.todos))
	copy(out, c.todos)
	return out
}

// AddTodos appends todos to the task list.
func (c *Context) AddTodos(todos ...Todo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.todos = append(c.todos, todos...)
}

// UpdateTodos applies all updates or none of them. It returns the updated
// todos in the order of the updates.
func (c *Context) UpdateTodos(updates ...TodoUpdate) ([]Todo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := make(map[string]int, len(c.todos))
	for i, t := range c.todos {
		index[t.ID] = i
	}
	for _, u := range updates {
		if _, ok := index[u.ID]; !ok {
			return nil, &ErrTodoNotFound{ID: u.ID}
		}
	}

	updated := make([]Todo, 0, len(updates))
	for _, u := range updates {
		t := &c.todos[index[u.ID]]
		if u.Status != "" {
			t.Status = u.Status
		}
		if u.Priority != "" {
			t.Priority = u.Priority
		}
		if u.Note != "" {
			t.Note = u.Note
		}
		updated = append(updated, *t)
	}
	return updated, nil
}

type contextJSON struct {
	WorkingDir string `json:"working_dir"`
	Todos      []Todo `json:"todos"`
}

func (c *Context) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	todos := c.todos
	if todos == nil {
		todos = []Todo{}
	}
	return json.Marshal(contextJSON{WorkingDir: c.workingDir, Todos: todos})
}

func (c *Context) UnmarshalJSON(data []byte) error {
	var v contextJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workingDir = v.WorkingDir
	c.todos = v.Todos
	return nil
}
