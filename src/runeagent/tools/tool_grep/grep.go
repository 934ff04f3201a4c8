package tool_grep

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constant
const Name = "grep"

const (
	DefaultMaxResults = 500
	maxLineLength     = 500
	maxFileSize       = 10 * 1024 * 1024
)

var errLimit = errors.New("result limit reached")

const grepPrompt = `Searches file contents with a regular expression.

Usage:
- Supports full RE2 regex syntax (e.g. "log.*Error", "func\\s+\\w+"); escape literal braces.
- Matching is case-insensitive unless case_sensitive is true.
- Filter files with glob (e.g. "*.go", "**/*_test.go").
- path defaults to the working directory; .git and binary files are skipped.
- Results are grouped by file and capped by max_results (default 500).`

// GrepInput represents the parameters for grep
type GrepInput struct {
	Pattern       string `json:"pattern" required:"true" description:"The regex pattern to search for"`
	Path          string `json:"path,omitempty" description:"File or directory to search (defaults to the working directory)"`
	Glob          string `json:"glob,omitempty" description:"Glob pattern filtering which files are searched"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" description:"Match case exactly (default false)"`
	MaxResults    int    `json:"max_results,omitempty" description:"Maximum number of matching lines (default 500)"`
}

// Match is one matching line.
type Match struct {
	LineNumber  int    `json:"line_number"`
	LineContent string `json:"line_content"`
}

// GrepOutput represents the response from grep
type GrepOutput struct {
	Pattern       string             `json:"pattern"`
	ResultsByFile map[string][]Match `json:"results_by_file"`
	Total         int                `json:"total"`
	Truncated     bool               `json:"truncated"`
}

func (o GrepOutput) Display() string {
	if o.Total == 0 {
		return "No matches for " + o.Pattern
	}
	files := make([]string, 0, len(o.ResultsByFile))
	for f := range o.ResultsByFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var b strings.Builder
	fmt.Fprintf(&b, "%d matches in %d files", o.Total, len(files))
	if o.Truncated {
		b.WriteString(" (truncated)")
	}
	for _, f := range files {
		for _, m := range o.ResultsByFile[f] {
			fmt.Fprintf(&b, "\n%s:%d: %s", f, m.LineNumber, strings.TrimSpace(m.LineContent))
		}
	}
	return b.String()
}

// Tool returns the grep tool definition using GenericTool
func Tool(ws *rfs.Workspace) (agent.Tool, error) {
	return agent.NewSessionTool(Name, grepPrompt, makeGrepHandler(ws))
}

func makeGrepHandler(ws *rfs.Workspace) agent.SessionToolHandler[GrepInput, GrepOutput] {
	return func(ctx context.Context, sc *session.Context, input GrepInput) (GrepOutput, error) {
		fs := toolsutil.FS(ws, sc)

		expr := input.Pattern
		if !input.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return GrepOutput{}, agent.ValueErrorf("invalid pattern %q: %v", input.Pattern, err)
		}
		if input.Glob != "" && !doublestar.ValidatePattern(input.Glob) {
			return GrepOutput{}, agent.ValueErrorf("invalid glob %q", input.Glob)
		}

		limit := input.MaxResults
		if limit <= 0 {
			limit = DefaultMaxResults
		}

		display := input.Path
		if display == "" {
			display = "."
		}
		root, err := fs.Resolve(input.Path)
		if err != nil {
			return GrepOutput{}, err
		}
		if _, err := fs.Stat(root); err != nil {
			return GrepOutput{}, toolsutil.PathError(err, display)
		}

		out := GrepOutput{Pattern: input.Pattern, ResultsByFile: map[string][]Match{}}
		err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if info.IsDir() {
				if info.Name() == ".git" && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.Mode().IsRegular() || info.Size() > maxFileSize {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				rel = filepath.Base(path)
			}
			if input.Glob != "" && !matchGlob(input.Glob, filepath.ToSlash(rel)) {
				return nil
			}

			name := display
			if path != root {
				name = filepath.Join(display, rel)
			}
			return searchFile(fs, path, name, re, limit, &out)
		})
		if errors.Is(err, errLimit) {
			out.Truncated = true
		} else if err != nil {
			return GrepOutput{}, err
		}

		toolsutil.GetLogger().Info("grep finished", "pattern", input.Pattern, "path", root, "matches", out.Total)
		return out, nil
	}
}

func matchGlob(glob, rel string) bool {
	if !strings.Contains(glob, "/") {
		ok, _ := doublestar.Match(glob, filepath.Base(rel))
		return ok
	}
	ok, _ := doublestar.Match(glob, rel)
	return ok
}

func searchFile(fs afero.Fs, path, name string, re *regexp.Regexp, limit int, out *GrepOutput) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil || !toolsutil.IsTextFile(data) {
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxFileSize)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if !re.MatchString(text) {
			continue
		}
		if out.Total >= limit {
			return errLimit
		}
		if len(text) > maxLineLength {
			text = text[:maxLineLength] + "…"
		}
		out.ResultsByFile[name] = append(out.ResultsByFile[name], Match{LineNumber: line, LineContent: text})
		out.Total++
	}
	return nil
}
