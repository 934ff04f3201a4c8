package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/elee1766/rune/src/session"
)

// SessionStore keeps sessions in SQLite, keyed by their path.
type SessionStore struct {
	db     *DB
	logger *slog.Logger
}

var (
	_ session.Store  = (*SessionStore)(nil)
	_ session.Lister = (*SessionStore)(nil)
)

func NewSessionStore(db *DB, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{db: db, logger: logger.With("component", "sqlite_session_store")}
}

// Load reads the session stored under path.
func (s *SessionStore) Load(ctx context.Context, path string) (*session.Session, error) {
	if path == "" {
		return nil, session.ErrEmptySessionPath
	}

	row, err := getSessionRow(ctx, s.db.DB(), path)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s", session.ErrSessionNotFound, path)
	}

	rows, err := getMessages(ctx, s.db.DB(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	sess := &session.Session{
		Name:      row.Name,
		Path:      row.Path,
		Model:     row.Model,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Context:   session.NewContext(row.WorkingDir),
		Messages:  make([]session.Message, 0, len(rows)),
	}
	if row.Todos.V != nil {
		sess.Context.AddTodos(*row.Todos.V...)
	}
	for _, r := range rows {
		sess.Messages = append(sess.Messages, r.toMessage())
	}
	if err := session.Validate(sess.Messages); err != nil {
		return nil, fmt.Errorf("invalid session %s: %w", path, err)
	}

	s.logger.Debug("loaded session", "path", path, "messages", len(sess.Messages))
	return sess, nil
}

// Save replaces the stored session in one transaction.
func (s *SessionStore) Save(ctx context.Context, path string, sess *session.Session) error {
	if path == "" {
		return session.ErrEmptySessionPath
	}
	if err := session.Validate(sess.Messages); err != nil {
		return err
	}

	tx, err := s.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertSession(ctx, tx, path, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_path = ?`, path); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	for i := range sess.Messages {
		if err := insertMessage(ctx, tx, path, &sess.Messages[i]); err != nil {
			return fmt.Errorf("failed to save message %d: %w", sess.Messages[i].Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	s.logger.Debug("saved session", "path", path, "messages", len(sess.Messages))
	return nil
}

// List returns the sessions whose path lives under dir, newest first.
func (s *SessionStore) List(ctx context.Context, dir string) ([]session.Summary, error) {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	query := `SELECT s.path, s.name, s.model, s.working_dir, s.todos, s.created_at, s.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.session_path = s.path) AS message_count
		FROM sessions s WHERE substr(s.path, 1, length(?)) = ? ORDER BY s.updated_at DESC`

	var rows []sessionRow
	if err := sqlscan.Select(ctx, s.db.DB(), &rows, query, prefix, prefix); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]session.Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, session.Summary{
			Name:         r.Name,
			Path:         r.Path,
			Model:        r.Model,
			UpdatedAt:    r.UpdatedAt,
			MessageCount: r.MessageCount,
		})
	}
	return out, nil
}

func getSessionRow(ctx context.Context, db sqlscan.Querier, path string) (*sessionRow, error) {
	query := `SELECT path, name, model, working_dir, todos, created_at, updated_at, 0 AS message_count FROM sessions WHERE path = ?`
	var r sessionRow
	err := sqlscan.Get(ctx, db, &r, query, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func getMessages(ctx context.Context, db sqlscan.Querier, path string) ([]messageRow, error) {
	query := `SELECT id, session_path, sequence, role, content, tool_call, tool_result, created_at FROM messages WHERE session_path = ? ORDER BY sequence`
	var rows []messageRow
	if err := sqlscan.Select(ctx, db, &rows, query, path); err != nil {
		return nil, err
	}
	return rows, nil
}

func upsertSession(ctx context.Context, db Execer, path string, sess *session.Session) error {
	var (
		workingDir string
		todos      = []session.Todo{}
	)
	if sess.Context != nil {
		workingDir = sess.Context.WorkingDir()
		todos = sess.Context.Todos()
	}
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := sess.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query := `INSERT INTO sessions (path, name, model, working_dir, todos, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			model = excluded.model,
			working_dir = excluded.working_dir,
			todos = excluded.todos,
			updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		path, sess.Name, sess.Model, workingDir,
		JSONColumn[[]session.Todo]{V: &todos},
		createdAt, updatedAt,
	)
	return err
}

func insertMessage(ctx context.Context, db Execer, path string, m *session.Message) error {
	query := `INSERT INTO messages (id, session_path, sequence, role, content, tool_call, tool_result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		m.ID, path, m.Sequence, string(m.Role), m.Content,
		JSONColumn[session.ToolCall]{V: m.ToolCall},
		JSONColumn[session.ToolResult]{V: m.ToolResult},
		m.CreatedAt,
	)
	return err
}
