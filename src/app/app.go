// Package app wires configuration, the model provider, session storage and
// the tool set into the services the rune commands share.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/aisdk"
	"github.com/elee1766/rune/src/config"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/orclient"
	"github.com/elee1766/rune/src/prompt"
	"github.com/elee1766/rune/src/runeagent"
	"github.com/elee1766/rune/src/session"
	"github.com/elee1766/rune/src/storage"
)

var ErrModelWithoutTools = errors.New("model does not support tool calling")

// SessionStore is the storage backend for sessions.
type SessionStore interface {
	session.Store
	session.Lister
}

// App represents the main application with all services
type App struct {
	Config    *config.Config
	Provider  aisdk.Provider
	Store     SessionStore
	Workspace *rfs.Workspace
	Toolbox   *agent.Toolbox
	Logger    *slog.Logger

	fs afero.Fs
	db *storage.DB
}

// Options holds what New needs besides the loaded configuration.
type Options struct {
	// Root is the project directory; tools cannot leave it.
	Root   string
	Config *config.Config
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Provider replaces the OpenRouter client when set.
	Provider aisdk.Provider
	Logger   *slog.Logger
}

// New creates a new App instance with all services initialized
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	a := &App{
		Config:    cfg,
		Provider:  opts.Provider,
		Workspace: rfs.NewWorkspace(fsys, root),
		Logger:    logger,
		fs:        fsys,
	}

	if a.Provider == nil {
		a.Provider = orclient.NewClient(orclient.Config{
			APIKey:     cfg.API.APIKey,
			BaseURL:    cfg.API.BaseURL,
			Timeout:    cfg.APITimeout(),
			RetryCount: cfg.API.RetryCount,
			Logger:     logger,
		})
	}

	switch cfg.Session.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Session.DatabasePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := storage.Open(ctx, cfg.Session.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		a.db = db
		a.Store = storage.NewSessionStore(db, logger)
	default:
		a.Store = session.NewJSONStore(fsys, logger)
	}

	toolbox, err := runeagent.NewToolbox(runeagent.ToolsetConfig{
		Workspace:      a.Workspace,
		CommandTimeout: cfg.CommandTimeout(),
		PythonBinary:   cfg.Tools.PythonBinary,
		PythonTimeout:  cfg.PythonTimeout(),
		FetchMaxBytes:  cfg.Tools.FetchMaxBytes,
		Logger:         logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Toolbox = toolbox

	return a, nil
}

// Root returns the project directory.
func (a *App) Root() string {
	return a.Workspace.Root()
}

// SessionDir returns the directory new sessions are stored in.
func (a *App) SessionDir() string {
	return a.projectPath(a.Config.Session.Dir)
}

// SnapshotDir returns the directory /save writes to.
func (a *App) SnapshotDir() string {
	return a.projectPath(a.Config.Session.SnapshotDir)
}

// PromptHistoryPath returns the file submitted prompts are recorded in.
func (a *App) PromptHistoryPath() string {
	return filepath.Join(a.Root(), config.ProjectDirName, "prompt.history")
}

// PromptHistory loads the project's prompt history.
func (a *App) PromptHistory() (*prompt.History, error) {
	return prompt.LoadHistory(a.fs, a.PromptHistoryPath(), a.Logger)
}

func (a *App) projectPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.Root(), p)
}

// Agent builds the model collaborator for modelName.
func (a *App) Agent(ctx context.Context, modelName string) (*agent.Agent, error) {
	mc, err := a.Provider.Model(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	if info := mc.GetModelInfo(); info != nil && !info.SupportsTools() {
		return nil, fmt.Errorf("%w: %s", ErrModelWithoutTools, modelName)
	}

	prompt := runeagent.GenerateSystemPrompt(a.Toolbox, runeagent.PromptConfig{
		Fs:         a.fs,
		WorkingDir: a.Root(),
		Now:        time.Now(),
	})
	return &agent.Agent{
		SystemPrompt: prompt,
		Model:        mc,
		Toolbox:      a.Toolbox,
		Logger:       a.Logger,
	}, nil
}

// NewSession starts an empty session in the session directory.
func (a *App) NewSession(now time.Time) *session.Session {
	sess := session.New(a.SessionDir(), a.Root(), now)
	sess.Model = a.Config.Model
	return sess
}

// OpenSession loads a stored session. A working directory that no longer
// lies inside the project is reset to the project root.
func (a *App) OpenSession(ctx context.Context, path string) (*session.Session, error) {
	sess, err := a.Store.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if wd := sess.Context.WorkingDir(); wd == "" || !a.Workspace.Contains(wd) {
		a.Logger.Debug("resetting session working directory", "session", sess.Name, "working_dir", wd)
		sess.Context.SetWorkingDir(a.Root())
	}
	return sess, nil
}

// ListSessions returns the stored sessions, newest first.
func (a *App) ListSessions(ctx context.Context) ([]session.Summary, error) {
	return a.Store.List(ctx, a.SessionDir())
}

// SaveSession persists sess at its path.
func (a *App) SaveSession(ctx context.Context, sess *session.Session) error {
	return a.Store.Save(ctx, sess.Path, sess)
}

// Snapshot stores a named copy of sess in the snapshot directory.
func (a *App) Snapshot(ctx context.Context, sess *session.Session, name string) (string, error) {
	return session.Snapshot(ctx, a.Store, sess, a.SnapshotDir(), name)
}

// Close closes all resources held by the app
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
