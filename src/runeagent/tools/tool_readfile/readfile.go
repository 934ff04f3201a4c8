package tool_readfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constant
const Name = "read_file"

const readFilePrompt = `Reads a whole file from the project.

Usage:
- The path parameter can be an absolute path or a relative path (relative to the current working directory)
- Files larger than 5 MB are rejected; use read_chunk to read them piecewise
- You can optionally specify line_numbers: true to include line numbers in the output (format: "1: line content")
- It is always better to speculatively read multiple files as a batch that are potentially useful.`

// ReadFileInput represents the parameters for read_file
type ReadFileInput struct {
	Path        string `json:"path" required:"true" description:"The file path to read (absolute or relative to current working directory)"`
	LineNumbers bool   `json:"line_numbers,omitempty" description:"Include line numbers in output (format: '1: line content')"`
}

// ReadFileOutput represents the response from read_file
type ReadFileOutput struct {
	Path     string `json:"path" description:"The file path that was read"`
	Content  string `json:"content" description:"The file contents"`
	Size     int64  `json:"size" description:"File size in bytes"`
	Language string `json:"language,omitempty" description:"Detected programming language"`
	IsText   bool   `json:"is_text" description:"Whether the file is a text file"`
}

func (o ReadFileOutput) Display() string {
	lines := strings.Count(o.Content, "\n")
	if o.Content != "" && !strings.HasSuffix(o.Content, "\n") {
		lines++
	}
	return fmt.Sprintf("Read %s (%d lines, %s)", o.Path, lines, humanize.IBytes(uint64(o.Size)))
}

// Tool returns the read_file tool definition using GenericTool
func Tool(ws *rfs.Workspace) (agent.Tool, error) {
	return agent.NewSessionTool(Name, readFilePrompt, makeReadFileHandler(ws))
}

// makeReadFileHandler creates a type-safe handler for the read_file tool
func makeReadFileHandler(ws *rfs.Workspace) agent.SessionToolHandler[ReadFileInput, ReadFileOutput] {
	return func(ctx context.Context, sc *session.Context, input ReadFileInput) (ReadFileOutput, error) {
		logger := toolsutil.GetLogger()
		fs := toolsutil.FS(ws, sc)

		info, err := fs.Stat(input.Path)
		if err != nil {
			logger.Debug("stat failed", "path", input.Path, "error", err)
			return ReadFileOutput{}, toolsutil.PathError(err, input.Path)
		}
		if info.IsDir() {
			return ReadFileOutput{}, toolsutil.IsDirectoryError(input.Path)
		}
		if info.Size() > toolsutil.MaxReadSize {
			logger.Debug("file too large", "path", input.Path, "size", humanize.IBytes(uint64(info.Size())))
			return ReadFileOutput{}, agent.ValueErrorf("File size exceeds 5 MB limit")
		}
		if err := ctx.Err(); err != nil {
			return ReadFileOutput{}, err
		}

		content, err := afero.ReadFile(fs, input.Path)
		if err != nil {
			return ReadFileOutput{}, toolsutil.PathError(err, input.Path)
		}

		isText := toolsutil.IsTextFile(content)
		text := string(content)
		if input.LineNumbers && isText {
			text = addLineNumbers(text)
		}

		logger.Info("file read", "path", input.Path, "size", len(content))
		return ReadFileOutput{
			Path:     input.Path,
			Content:  text,
			Size:     int64(len(content)),
			Language: toolsutil.DetectLanguage(input.Path),
			IsText:   isText,
		}, nil
	}
}

// addLineNumbers adds line numbers to the content
func addLineNumbers(content string) string {
	lines := toolsutil.Lines(content)
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = fmt.Sprintf("%d: %s", i+1, line)
	}
	return strings.Join(result, "\n")
}
