package toolsutil

import (
	"errors"
	"io"
	iofs "io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/session"
)

// Package-level logger for tools
var logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// SetLogger allows setting a custom logger for the tools package
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// GetLogger returns the package logger
func GetLogger() *slog.Logger {
	return logger
}

// MaxReadSize is the largest file read_file returns whole.
const MaxReadSize = 5 * 1024 * 1024

// FS returns the filesystem a tool call operates on.
func FS(ws *rfs.Workspace, sc *session.Context) *rfs.ContextualFs {
	return ws.In(sc.WorkingDir())
}

// PathError rewrites a path error so it reports the path the model asked
// for rather than the resolved one.
func PathError(err error, path string) error {
	var pe *iofs.PathError
	if errors.As(err, &pe) {
		return &iofs.PathError{Op: pe.Op, Path: path, Err: pe.Err}
	}
	return err
}

// NotFound reports a missing path.
func NotFound(op, path string) error {
	return &iofs.PathError{Op: op, Path: path, Err: iofs.ErrNotExist}
}

// IsDirectoryError reports a directory given where a file was expected.
func IsDirectoryError(path string) error {
	return agent.ValueErrorf("Path is a directory: %s", path)
}

// DetectLanguage detects the programming language of a file from its name.
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".go":
		return "go"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".py":
		return "python"
	case ".rb":
		return "ruby"
	case ".java":
		return "java"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".cxx", ".hpp":
		return "cpp"
	case ".rs":
		return "rust"
	case ".sh", ".bash":
		return "bash"
	case ".sql":
		return "sql"
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	case ".html", ".htm":
		return "html"
	case ".css":
		return "css"
	case ".md":
		return "markdown"
	}

	switch strings.ToLower(filepath.Base(filePath)) {
	case "dockerfile":
		return "dockerfile"
	case "makefile":
		return "makefile"
	case "go.mod", "go.sum":
		return "go"
	}
	return ""
}

// IsTextFile checks if content appears to be text
func IsTextFile(content []byte) bool {
	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > 8192 {
		sample = sample[:8192]
	}
	for _, b := range sample {
		if b == 0 {
			return false
		}
	}
	if !utf8.Valid(sample) {
		// The sample may end inside a multibyte rune.
		trimmed := sample
		for i := 0; i < utf8.UTFMax && len(trimmed) > 0 && !utf8.Valid(trimmed); i++ {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if !utf8.Valid(trimmed) {
			return false
		}
	}
	return true
}

// Lines splits text into lines without their terminators.
func Lines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
