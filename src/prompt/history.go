package prompt

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// History is the list of submitted inputs, oldest first, persisted to a file.
//
// Each entry is stored as a timestamp comment followed by its lines, each
// prefixed with "+":
//
//	# 2025-03-01 12:00:00.000000
//	+first line
//	+second line
type History struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries []string
	now     func() time.Time
}

// LoadHistory reads the history at path. A missing file gives an empty
// history that is created on the first Append.
func LoadHistory(fsys afero.Fs, path string, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &History{fs: fsys, path: path, logger: logger, now: time.Now}

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt history: %w", err)
	}
	h.entries = parseHistory(data)
	return h, nil
}

func parseHistory(data []byte) []string {
	var (
		entries []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			entries = append(entries, strings.Join(current, "\n"))
			current = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "+"); ok {
			current = append(current, rest)
			continue
		}
		flush()
	}
	flush()
	return entries
}

// Path returns the history file.
func (h *History) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// Entries returns a copy of the stored inputs, oldest first.
func (h *History) Entries() []string {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Append records entry in memory and on disk. Blank input and a repeat of
// the last entry are not recorded.
func (h *History) Append(entry string) error {
	if h == nil || strings.TrimSpace(entry) == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}
	h.entries = append(h.entries, entry)

	var b strings.Builder
	fmt.Fprintf(&b, "\n# %s\n", h.now().Format("2006-01-02 15:04:05.000000"))
	for _, line := range strings.Split(entry, "\n") {
		b.WriteString("+" + line + "\n")
	}

	if err := h.fs.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	f, err := h.fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open prompt history: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write prompt history: %w", err)
	}
	return nil
}

// record appends entry and logs a write failure.
func (h *History) record(entry string) {
	if err := h.Append(entry); err != nil {
		h.logger.Warn("failed to record prompt history", "path", h.path, "error", err)
	}
}

// Suggest returns the most recent entry that extends prefix, or "".
func (h *History) Suggest(prefix string) string {
	if h == nil || prefix == "" {
		return ""
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if len(e) > len(prefix) && strings.HasPrefix(e, prefix) {
			return e
		}
	}
	return ""
}
