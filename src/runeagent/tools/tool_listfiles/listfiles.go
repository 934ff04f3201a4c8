package tool_listfiles

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constant
const Name = "list_files"

const DefaultMaxDepth = 5

const listFilesPrompt = `Lists files and directories as a tree. The path parameter can be absolute or relative to the current working directory and defaults to it.

- Directories are listed before files, each sorted by name.
- Entries ignored by the .gitignore at the project root are skipped, as is .git.
- Set recursive to false to list only the direct children.
- max_depth bounds how deep the tree goes (default 5).

Prefer grep when you know what you are looking for.`

// ListFilesInput represents the input for listing files
type ListFilesInput struct {
	Path      string `json:"path,omitempty" description:"Directory to list, defaults to the working directory"`
	Recursive *bool  `json:"recursive,omitempty" description:"Whether to descend into subdirectories (default true)"`
	MaxDepth  int    `json:"max_depth,omitempty" description:"Maximum depth of the tree (default 5)"`
}

// Node is one entry of the listing.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Size     int64   `json:"size,omitempty"`
	Language string  `json:"language,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// ListFilesOutput represents the output of listing files
type ListFilesOutput struct {
	Root  *Node `json:"root"`
	Count int   `json:"count"`
}

// Display renders the listing as a tree.
func (o ListFilesOutput) Display() string {
	if o.Root == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(o.Root.Name + "/\n")
	renderChildren(&b, o.Root.Children, "")
	return strings.TrimSuffix(b.String(), "\n")
}

func renderChildren(b *strings.Builder, children []*Node, prefix string) {
	for i, child := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		name := child.Name
		if child.Type == "dir" {
			name += "/"
		}
		b.WriteString(prefix + branch + name + "\n")
		renderChildren(b, child.Children, prefix+next)
	}
}

type lister struct {
	fs       afero.Fs
	ignore   *ignore.GitIgnore
	base     string
	maxDepth int
	count    int
}

// makeListFilesHandler creates a typed handler for the list files tool
func makeListFilesHandler(ws *rfs.Workspace) agent.SessionToolHandler[ListFilesInput, ListFilesOutput] {
	return func(ctx context.Context, sc *session.Context, input ListFilesInput) (ListFilesOutput, error) {
		logger := toolsutil.GetLogger()
		fs := toolsutil.FS(ws, sc)

		display := input.Path
		if display == "" {
			display = "."
		}
		dir, err := fs.Resolve(input.Path)
		if err != nil {
			return ListFilesOutput{}, err
		}
		info, err := fs.Stat(dir)
		if err != nil {
			return ListFilesOutput{}, toolsutil.PathError(err, display)
		}
		if !info.IsDir() {
			return ListFilesOutput{}, agent.ValueErrorf("Not a directory: %s", display)
		}

		maxDepth := input.MaxDepth
		if maxDepth <= 0 {
			maxDepth = DefaultMaxDepth
		}
		if input.Recursive != nil && !*input.Recursive {
			maxDepth = 1
		}

		base := ws.Root()
		if base == "" {
			base = dir
		}
		l := &lister{fs: fs, ignore: readGitignore(fs, base), base: base, maxDepth: maxDepth}
		root := &Node{Name: filepath.Base(dir), Path: display, Type: "dir"}
		if err := l.walk(ctx, root, dir, 1); err != nil {
			return ListFilesOutput{}, err
		}

		logger.Info("listed files", "path", dir, "count", l.count)
		return ListFilesOutput{Root: root, Count: l.count}, nil
	}
}

func (l *lister) walk(ctx context.Context, parent *Node, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return toolsutil.PathError(err, parent.Path)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	parent.Children = make([]*Node, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" || l.ignored(filepath.Join(dir, name), entry.IsDir()) {
			continue
		}

		node := &Node{Name: name, Path: filepath.Join(parent.Path, name)}
		l.count++
		if entry.IsDir() {
			node.Type = "dir"
			if depth < l.maxDepth {
				if err := l.walk(ctx, node, filepath.Join(dir, name), depth+1); err != nil {
					return err
				}
			}
		} else {
			node.Type = "file"
			node.Size = entry.Size()
			node.Language = toolsutil.DetectLanguage(name)
		}
		parent.Children = append(parent.Children, node)
	}
	return nil
}

// ignored reports whether the root .gitignore excludes abs.
func (l *lister) ignored(abs string, isDir bool) bool {
	if l.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(l.base, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir {
		rel += "/"
	}
	return l.ignore.MatchesPath(rel)
}

func readGitignore(fs afero.Fs, dir string) *ignore.GitIgnore {
	data, err := afero.ReadFile(fs, filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

// Tool returns the list_files tool definition using GenericTool
func Tool(ws *rfs.Workspace) (agent.Tool, error) {
	return agent.NewSessionTool(Name, listFilesPrompt, makeListFilesHandler(ws))
}
