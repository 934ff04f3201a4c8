package tool_writefile

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constant
const Name = "write_file"

// Write statuses
const (
	StatusCreated   = "created"
	StatusModified  = "modified"
	StatusAppended  = "appended"
	StatusUnchanged = "unchanged"
)

const writeFilePrompt = `Writes a file to the local filesystem.

Usage:
- mode "w" (default) overwrites the file, mode "a" appends to it.
- Parent directories are created as needed.
- If this is an existing file, read it first. Prefer edit_file for targeted changes.
- NEVER proactively create documentation files (*.md) or README files. Only create documentation files if explicitly requested by the User.`

// WriteFileInput represents the parameters for write_file
type WriteFileInput struct {
	Path    string `json:"path" required:"true" description:"The file path"`
	Content string `json:"content" required:"true" description:"The content to write"`
	Mode    string `json:"mode,omitempty" enum:"w,a" description:"w to overwrite (default), a to append"`
}

// WriteFileOutput represents the response from write_file
type WriteFileOutput struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Size   int    `json:"size"`
	Diff   string `json:"diff,omitempty"`
}

func (o WriteFileOutput) Display() string {
	if o.Diff != "" {
		return o.Diff
	}
	return o.Status + " " + o.Path
}

// Tool returns the write_file tool definition using GenericTool
func Tool(ws *rfs.Workspace) (agent.Tool, error) {
	return agent.NewSessionTool(Name, writeFilePrompt, makeWriteFileHandler(ws))
}

// makeWriteFileHandler creates a type-safe handler for the write_file tool
func makeWriteFileHandler(ws *rfs.Workspace) agent.SessionToolHandler[WriteFileInput, WriteFileOutput] {
	return func(ctx context.Context, sc *session.Context, input WriteFileInput) (WriteFileOutput, error) {
		fs := toolsutil.FS(ws, sc)

		mode := input.Mode
		if mode == "" {
			mode = "w"
		}
		if mode != "w" && mode != "a" {
			return WriteFileOutput{}, agent.ValueErrorf("mode must be 'w' or 'a', got '%s'", input.Mode)
		}

		abs, err := fs.Resolve(input.Path)
		if err != nil {
			return WriteFileOutput{}, err
		}

		exists := true
		var before []byte
		info, err := fs.Stat(abs)
		switch {
		case errors.Is(err, iofs.ErrNotExist):
			exists = false
		case err != nil:
			return WriteFileOutput{}, toolsutil.PathError(err, input.Path)
		case info.IsDir():
			return WriteFileOutput{}, toolsutil.IsDirectoryError(input.Path)
		default:
			if before, err = afero.ReadFile(fs, abs); err != nil {
				return WriteFileOutput{}, toolsutil.PathError(err, input.Path)
			}
		}

		after := input.Content
		if mode == "a" {
			after = string(before) + input.Content
		}

		out := WriteFileOutput{Path: input.Path, Size: len(after)}
		switch {
		case !exists:
			out.Status = StatusCreated
		case string(before) == after:
			out.Status = StatusUnchanged
			return out, nil
		case mode == "a":
			out.Status = StatusAppended
		default:
			out.Status = StatusModified
		}

		if err := ctx.Err(); err != nil {
			return WriteFileOutput{}, err
		}
		if err := fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return WriteFileOutput{}, toolsutil.PathError(err, input.Path)
		}

		perm := os.FileMode(0o644)
		if info != nil {
			perm = info.Mode().Perm()
		}
		if err := afero.WriteFile(fs, abs, []byte(after), perm); err != nil {
			return WriteFileOutput{}, toolsutil.PathError(err, input.Path)
		}

		out.Diff = toolsutil.Diff(input.Path, string(before), after)
		toolsutil.GetLogger().Info("file written", "path", abs, "status", out.Status, "size", out.Size)
		return out, nil
	}
}
