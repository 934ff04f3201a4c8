package tool_listfiles

import (
	"context"
	"encoding/json"
	iofs "io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/session"
)

func run(t *testing.T, fs afero.Fs, args string) (ListFilesOutput, *agent.Result, error) {
	t.Helper()
	tool, err := Tool(rfs.NewWorkspace(fs, "/project"))
	require.NoError(t, err)

	res, err := tool.Execute(context.Background(), session.NewContext("/project"), json.RawMessage(args))
	if err != nil {
		return ListFilesOutput{}, nil, err
	}
	var out ListFilesOutput
	require.NoError(t, json.Unmarshal(res.Data, &out))
	return out, res, nil
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestListFilesTool(t *testing.T) {
	tests := []struct {
		name    string
		setupFS func(afero.Fs) error
		args    string
		check   func(t *testing.T, out ListFilesOutput, res *agent.Result)
	}{
		{
			name: "directories before files",
			setupFS: func(fs afero.Fs) error {
				if err := fs.MkdirAll("/project/dir1", 0o755); err != nil {
					return err
				}
				if err := afero.WriteFile(fs, "/project/file1.txt", []byte("a"), 0o644); err != nil {
					return err
				}
				return afero.WriteFile(fs, "/project/dir1/file2.go", []byte("b"), 0o644)
			},
			args: `{}`,
			check: func(t *testing.T, out ListFilesOutput, res *agent.Result) {
				assert.Equal(t, "project", out.Root.Name)
				assert.Equal(t, []string{"dir1", "file1.txt"}, names(out.Root.Children))
				dir1 := out.Root.Children[0]
				assert.Equal(t, "dir", dir1.Type)
				require.Len(t, dir1.Children, 1)
				assert.Equal(t, "go", dir1.Children[0].Language)
				assert.Equal(t, "dir1/file2.go", dir1.Children[0].Path)
				assert.Equal(t, 3, out.Count)
				assert.Equal(t, "project/\n├── dir1/\n│   └── file2.go\n└── file1.txt", res.Display)
			},
		},
		{
			name: "not recursive",
			setupFS: func(fs afero.Fs) error {
				return afero.WriteFile(fs, "/project/dir1/file2.txt", []byte("b"), 0o644)
			},
			args: `{"recursive": false}`,
			check: func(t *testing.T, out ListFilesOutput, _ *agent.Result) {
				require.Len(t, out.Root.Children, 1)
				assert.Empty(t, out.Root.Children[0].Children)
			},
		},
		{
			name: "max depth",
			setupFS: func(fs afero.Fs) error {
				return fs.MkdirAll("/project/d1/d2/d3", 0o755)
			},
			args: `{"max_depth": 2}`,
			check: func(t *testing.T, out ListFilesOutput, _ *agent.Result) {
				d1 := out.Root.Children[0]
				require.Len(t, d1.Children, 1)
				assert.Empty(t, d1.Children[0].Children)
			},
		},
		{
			name: "gitignore",
			setupFS: func(fs afero.Fs) error {
				files := map[string]string{
					"/project/.gitignore":     "*.log\nbuild\n# comment\n",
					"/project/file.txt":       "a",
					"/project/file.log":       "b",
					"/project/build/artifact": "c",
					"/project/.git/HEAD":      "ref",
				}
				for name, content := range files {
					if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
						return err
					}
				}
				return nil
			},
			args: `{}`,
			check: func(t *testing.T, out ListFilesOutput, _ *agent.Result) {
				assert.ElementsMatch(t, []string{".gitignore", "file.txt"}, names(out.Root.Children))
			},
		},
		{
			name: "gitignore negation",
			setupFS: func(fs afero.Fs) error {
				files := map[string]string{
					"/project/.gitignore": "*.log\n!keep.log\n",
					"/project/drop.log":   "a",
					"/project/keep.log":   "b",
				}
				for name, content := range files {
					if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
						return err
					}
				}
				return nil
			},
			args: `{}`,
			check: func(t *testing.T, out ListFilesOutput, _ *agent.Result) {
				assert.Equal(t, []string{".gitignore", "keep.log"}, names(out.Root.Children))
			},
		},
		{
			name: "root gitignore applies below the root",
			setupFS: func(fs afero.Fs) error {
				files := map[string]string{
					"/project/.gitignore":     "/src/gen/\n*.tmp\n",
					"/project/src/main.go":    "package main",
					"/project/src/a.tmp":      "x",
					"/project/src/gen/out.go": "package gen",
				}
				for name, content := range files {
					if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
						return err
					}
				}
				return nil
			},
			args: `{"path": "src"}`,
			check: func(t *testing.T, out ListFilesOutput, _ *agent.Result) {
				assert.Equal(t, []string{"main.go"}, names(out.Root.Children))
			},
		},
		{
			name: "subdirectory",
			setupFS: func(fs afero.Fs) error {
				return afero.WriteFile(fs, "/project/src/main.go", []byte("package main"), 0o644)
			},
			args: `{"path": "src"}`,
			check: func(t *testing.T, out ListFilesOutput, _ *agent.Result) {
				assert.Equal(t, "src", out.Root.Name)
				assert.Equal(t, "src/main.go", out.Root.Children[0].Path)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll("/project", 0o755))
			require.NoError(t, tt.setupFS(fs))

			out, res, err := run(t, fs, tt.args)
			require.NoError(t, err)
			tt.check(t, out, res)
		})
	}
}

func TestListFilesErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/file.txt", []byte("hello"), 0o644))

	_, _, err := run(t, fs, `{"path": "file.txt"}`)
	require.Error(t, err)
	assert.Equal(t, agent.KindValue, agent.ErrorKind(err))
	assert.Equal(t, "Not a directory: file.txt", err.Error())

	_, _, err = run(t, fs, `{"path": "missing"}`)
	assert.ErrorIs(t, err, iofs.ErrNotExist)
	assert.Equal(t, "Tool 'list_files' failed with FileNotFoundError: missing", agent.FailureText(Name, err))

	_, _, err = run(t, fs, `{"path": "/etc"}`)
	assert.Equal(t, agent.KindPermission, agent.ErrorKind(err))
}
