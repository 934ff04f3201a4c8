package storage

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elee1766/rune/src/session"
)

type sessionRow struct {
	Path         string                    `db:"path"`
	Name         string                    `db:"name"`
	Model        string                    `db:"model"`
	WorkingDir   string                    `db:"working_dir"`
	Todos        JSONColumn[[]session.Todo] `db:"todos"`
	CreatedAt    time.Time                 `db:"created_at"`
	UpdatedAt    time.Time                 `db:"updated_at"`
	MessageCount int                       `db:"message_count"`
}

type messageRow struct {
	ID          string                         `db:"id"`
	SessionPath string                         `db:"session_path"`
	Sequence    int64                          `db:"sequence"`
	Role        string                         `db:"role"`
	Content     string                         `db:"content"`
	ToolCall    JSONColumn[session.ToolCall]   `db:"tool_call"`
	ToolResult  JSONColumn[session.ToolResult] `db:"tool_result"`
	CreatedAt   time.Time                      `db:"created_at"`
}

func (r messageRow) toMessage() session.Message {
	return session.Message{
		ID:         r.ID,
		Sequence:   r.Sequence,
		Role:       session.Role(r.Role),
		Content:    r.Content,
		ToolCall:   r.ToolCall.V,
		ToolResult: r.ToolResult.V,
		CreatedAt:  r.CreatedAt,
	}
}

// JSONColumn stores a value as JSON text. A nil V maps to SQL NULL.
type JSONColumn[T any] struct {
	V *T
}

// Scan implements the sql.Scanner interface for JSONColumn
func (j *JSONColumn[T]) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		j.V = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan type %T into JSONColumn", value)
	}
	if len(data) == 0 {
		j.V = nil
		return nil
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	j.V = out
	return nil
}

// Value implements the driver.Valuer interface for JSONColumn
func (j JSONColumn[T]) Value() (driver.Value, error) {
	if j.V == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(j.V); err != nil {
		return nil, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
