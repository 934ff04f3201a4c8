// Package session holds the conversation data model and its durable storage.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrHistoryDiverged  = errors.New("history does not extend the session log")
	ErrInvalidSequence  = errors.New("message sequence is not strictly increasing")
	ErrInvalidRole      = errors.New("message has an unknown role")
	ErrEmptySessionPath = errors.New("session path is empty")
)

// NameLayout formats the timestamp part of generated session names.
const NameLayout = "20060102_150405"

// Session is an ordered, append-only message log plus the state tools carry
// between calls.
type Session struct {
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Context   *Context  `json:"context"`
	Messages  []Message `json:"messages"`
}

// New creates an empty session stored under dir, named after its creation
// time.
func New(dir, workingDir string, now time.Time) *Session {
	name := "session_" + now.Format(NameLayout)
	return &Session{
		Name:      name,
		Path:      filepath.Join(dir, name+".json"),
		CreatedAt: now,
		UpdatedAt: now,
		Context:   NewContext(workingDir),
	}
}

// NameFromPath derives a session name from its file path.
func NameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// History returns a copy of the message log.
func (s *Session) History() []Message {
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Replace installs a new history. The new history must keep every existing
// message unchanged at its position.
func (s *Session) Replace(history []Message) error {
	if len(history) < len(s.Messages) {
		return ErrHistoryDiverged
	}
	for i, m := range s.Messages {
		if history[i].ID != m.ID || history[i].Sequence != m.Sequence {
			return fmt.Errorf("%w: message %d", ErrHistoryDiverged, i)
		}
	}
	if err := Validate(history); err != nil {
		return err
	}
	s.Messages = append([]Message(nil), history...)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Validate checks that roles are known and sequences strictly increase.
func Validate(history []Message) error {
	var last int64
	for i, m := range history {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: %q at %d", ErrInvalidRole, m.Role, i)
		}
		if i > 0 && m.Sequence <= last {
			return fmt.Errorf("%w: %d after %d", ErrInvalidSequence, m.Sequence, last)
		}
		last = m.Sequence
	}
	return nil
}

// NextSequence returns the sequence number following the last message.
func NextSequence(history []Message) int64 {
	if len(history) == 0 {
		return 1
	}
	return history[len(history)-1].Sequence + 1
}

// NewMessage builds a message with a fresh id.
func NewMessage(seq int64, role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sequence:  seq,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
