package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store persists sessions. Save must replace the stored log atomically: a
// reader sees either the previous or the new log, never a mix.
type Store interface {
	Load(ctx context.Context, path string) (*Session, error)
	Save(ctx context.Context, path string, s *Session) error
}

// Summary describes a stored session without its messages.
type Summary struct {
	Name         string
	Path         string
	Model        string
	UpdatedAt    time.Time
	MessageCount int
}

// Lister enumerates stored sessions, newest first.
type Lister interface {
	List(ctx context.Context, dir string) ([]Summary, error)
}

// JSONStore keeps one JSON document per session on an afero filesystem.
type JSONStore struct {
	fs     afero.Fs
	logger *slog.Logger
}

var (
	_ Store  = (*JSONStore)(nil)
	_ Lister = (*JSONStore)(nil)
)

// NewJSONStore creates a store on fs.
func NewJSONStore(fs afero.Fs, logger *slog.Logger) *JSONStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONStore{fs: fs, logger: logger.With("component", "session_store")}
}

// Load reads the session at path.
func (s *JSONStore) Load(ctx context.Context, path string) (*Session, error) {
	if path == "" {
		return nil, ErrEmptySessionPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, path)
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", path, err)
	}
	if err := Validate(sess.Messages); err != nil {
		return nil, fmt.Errorf("invalid session %s: %w", path, err)
	}
	sess.Path = path
	if sess.Name == "" {
		sess.Name = NameFromPath(path)
	}
	if sess.Context == nil {
		sess.Context = NewContext("")
	}

	s.logger.Debug("loaded session", "path", path, "messages", len(sess.Messages))
	return &sess, nil
}

// Save writes the session to a temporary file next to path and renames it
// into place.
func (s *JSONStore) Save(ctx context.Context, path string, sess *Session) error {
	if path == "" {
		return ErrEmptySessionPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(sess.Messages); err != nil {
		return err
	}

	// Raw tool payloads are stored as given; indenting or HTML escaping
	// would rewrite them.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sess); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	data := buf.Bytes()

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString()[:8])
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.Debug("saved session", "path", path, "messages", len(sess.Messages))
	return nil
}

// List returns the sessions stored in dir, most recently updated first.
// Files that cannot be decoded are skipped.
func (s *JSONStore) List(ctx context.Context, dir string) ([]Summary, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		sess, err := s.Load(ctx, path)
		if err != nil {
			s.logger.Warn("skipping unreadable session", "path", path, "error", err)
			continue
		}
		out = append(out, Summary{
			Name:         sess.Name,
			Path:         path,
			Model:        sess.Model,
			UpdatedAt:    sess.UpdatedAt,
			MessageCount: len(sess.Messages),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// SnapshotName normalizes a snapshot name, appending .json when missing.
func SnapshotName(name string) string {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return name
}

// DefaultSnapshotName names an unnamed snapshot after the time it is taken.
func DefaultSnapshotName(t time.Time) string {
	return "snapshot_" + t.Format("20060102_150405") + ".json"
}

// Snapshot saves a copy of sess under dir with the given name and returns
// the snapshot path. The live session path is left untouched.
func Snapshot(ctx context.Context, store Store, sess *Session, dir, name string) (string, error) {
	if name == "" {
		name = DefaultSnapshotName(time.Now())
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	path := filepath.Join(dir, SnapshotName(name))
	if err := store.Save(ctx, path, sess); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return path, nil
}
