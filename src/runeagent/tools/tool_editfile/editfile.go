package tool_editfile

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constant
const Name = "edit_file"

const (
	searchMarker  = "<<<<<<< SEARCH"
	dividerMarker = "======="
	replaceMarker = ">>>>>>> REPLACE"
)

const editFilePrompt = `Edits a file by applying one or more search/replace blocks:

<<<<<<< SEARCH
exact lines to find
=======
lines to put in their place
>>>>>>> REPLACE

Rules:
- Each SEARCH section must match the current file content exactly once, including whitespace and indentation.
- Blocks are applied in order; later blocks see the result of earlier ones.
- Include enough surrounding lines to make each match unique.
- Read the file before editing it.`

// EditFileInput represents the parameters for edit_file
type EditFileInput struct {
	Path string `json:"path" required:"true" description:"The file to edit"`
	Diff string `json:"diff" required:"true" description:"One or more SEARCH/REPLACE blocks"`
}

// EditFileOutput represents the response from edit_file
type EditFileOutput struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Blocks int    `json:"blocks"`
	Diff   string `json:"diff"`
}

func (o EditFileOutput) Display() string {
	return o.Diff
}

// Block is one search/replace pair.
type Block struct {
	Search  string
	Replace string
}

// Tool returns the edit_file tool definition using GenericTool
func Tool(ws *rfs.Workspace) (agent.Tool, error) {
	return agent.NewSessionTool(Name, editFilePrompt, makeEditFileHandler(ws))
}

func makeEditFileHandler(ws *rfs.Workspace) agent.SessionToolHandler[EditFileInput, EditFileOutput] {
	return func(ctx context.Context, sc *session.Context, input EditFileInput) (EditFileOutput, error) {
		fs := toolsutil.FS(ws, sc)

		info, err := fs.Stat(input.Path)
		if err != nil {
			return EditFileOutput{}, toolsutil.PathError(err, input.Path)
		}
		if info.IsDir() {
			return EditFileOutput{}, toolsutil.NotFound("open", input.Path)
		}

		blocks, err := ParseBlocks(input.Diff)
		if err != nil {
			return EditFileOutput{}, err
		}

		data, err := afero.ReadFile(fs, input.Path)
		if err != nil {
			return EditFileOutput{}, toolsutil.PathError(err, input.Path)
		}
		before := string(data)

		after, err := Apply(before, blocks)
		if err != nil {
			return EditFileOutput{}, err
		}
		if err := ctx.Err(); err != nil {
			return EditFileOutput{}, err
		}

		if err := afero.WriteFile(fs, input.Path, []byte(after), info.Mode().Perm()); err != nil {
			return EditFileOutput{}, toolsutil.PathError(err, input.Path)
		}

		toolsutil.GetLogger().Info("file edited", "path", input.Path, "blocks", len(blocks))
		return EditFileOutput{
			Path:   input.Path,
			Status: "modified",
			Blocks: len(blocks),
			Diff:   toolsutil.Diff(input.Path, before, after),
		}, nil
	}
}

// ParseBlocks extracts the search/replace blocks of diff.
func ParseBlocks(diff string) ([]Block, error) {
	const (
		outside = iota
		inSearch
		inReplace
	)

	var (
		blocks  []Block
		search  []string
		replace []string
		state   = outside
	)
	for _, line := range strings.Split(strings.ReplaceAll(diff, "\r\n", "\n"), "\n") {
		marker := strings.TrimRight(line, " \t")
		switch state {
		case outside:
			if marker == searchMarker {
				state = inSearch
				search, replace = nil, nil
			}
		case inSearch:
			if marker == dividerMarker {
				state = inReplace
				continue
			}
			search = append(search, line)
		case inReplace:
			if marker == replaceMarker {
				state = outside
				blocks = append(blocks, Block{
					Search:  strings.Join(search, "\n"),
					Replace: strings.Join(replace, "\n"),
				})
				continue
			}
			replace = append(replace, line)
		}
	}

	if state != outside || len(blocks) == 0 {
		return nil, agent.ValueErrorf("Invalid diff format: expected %s / %s / %s blocks", searchMarker, dividerMarker, replaceMarker)
	}
	for _, b := range blocks {
		if b.Search == "" {
			return nil, agent.ValueErrorf("Invalid diff format: empty SEARCH section")
		}
	}
	return blocks, nil
}

// Apply replaces each block's search text, which must occur exactly once.
func Apply(content string, blocks []Block) (string, error) {
	for _, b := range blocks {
		if strings.Count(content, b.Search) != 1 {
			return "", agent.ValueErrorf("No unique match found for search block:\n%s", b.Search)
		}
		content = strings.Replace(content, b.Search, b.Replace, 1)
	}
	return content, nil
}
