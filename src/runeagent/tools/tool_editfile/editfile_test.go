package tool_editfile

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/session"
)

func block(search, replace string) string {
	return "<<<<<<< SEARCH\n" + search + "\n=======\n" + replace + "\n>>>>>>> REPLACE"
}

func execute(t *testing.T, fs afero.Fs, path, diff string) (*agent.Result, error) {
	t.Helper()
	tool, err := Tool(rfs.NewWorkspace(fs, "/project"))
	require.NoError(t, err)
	args, err := json.Marshal(EditFileInput{Path: path, Diff: diff})
	require.NoError(t, err)
	return tool.Execute(context.Background(), session.NewContext("/project"), args)
}

func TestEditFileTool(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		path     string
		diff     string
		want     string
		wantKind string
		wantMsg  string
	}{
		{
			name:    "single block",
			content: "line1\nline2\nline3",
			diff:    block("line2", "new_line2"),
			want:    "line1\nnew_line2\nline3",
		},
		{
			name:    "multiple blocks",
			content: "a\nb\nc\n",
			diff:    block("a", "A") + "\n\n" + block("c", "C1\nC2"),
			want:    "A\nb\nC1\nC2\n",
		},
		{
			name:    "delete lines",
			content: "keep\ndrop\nkeep too\n",
			diff:    block("keep\ndrop", "keep"),
			want:    "keep\nkeep too\n",
		},
		{
			name:     "bad syntax",
			content:  "line1",
			diff:     "this is not a valid diff",
			wantKind: agent.KindValue,
			wantMsg:  "Invalid diff format",
		},
		{
			name:     "unterminated block",
			content:  "line1",
			diff:     "<<<<<<< SEARCH\nline1\n=======\nx",
			wantKind: agent.KindValue,
			wantMsg:  "Invalid diff format",
		},
		{
			name:     "search not found",
			content:  "line1\nline2",
			diff:     block("missing", "replacement"),
			wantKind: agent.KindValue,
			wantMsg:  "No unique match found",
		},
		{
			name:     "ambiguous search",
			content:  "x\nx\n",
			diff:     block("x", "y"),
			wantKind: agent.KindValue,
			wantMsg:  "No unique match found",
		},
		{
			name:     "file not found",
			path:     "missing.txt",
			diff:     block("a", "b"),
			wantKind: agent.KindFileNotFound,
			wantMsg:  "missing.txt",
		},
		{
			name:     "directory",
			path:     "a_dir",
			diff:     block("a", "b"),
			wantKind: agent.KindFileNotFound,
			wantMsg:  "a_dir",
		},
		{
			name:     "outside project",
			path:     "/tmp/file.txt",
			diff:     block("a", "b"),
			wantKind: agent.KindPermission,
			wantMsg:  "Path is outside the project directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll("/project/a_dir", 0o755))
			require.NoError(t, afero.WriteFile(fs, "/project/test_file.txt", []byte(tt.content), 0o644))
			require.NoError(t, afero.WriteFile(fs, "/tmp/file.txt", []byte("a"), 0o644))

			path := tt.path
			if path == "" {
				path = "test_file.txt"
			}
			res, err := execute(t, fs, path, tt.diff)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, agent.ErrorKind(err))
				assert.True(t, strings.HasPrefix(agent.ErrorMessage(err), tt.wantMsg), agent.ErrorMessage(err))
				return
			}
			require.NoError(t, err)

			data, err := afero.ReadFile(fs, "/project/test_file.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var out EditFileOutput
			require.NoError(t, json.Unmarshal(res.Data, &out))
			assert.Equal(t, "modified", out.Status)
			assert.NotEmpty(t, out.Diff)
			assert.Equal(t, out.Diff, res.Display)
		})
	}
}

func TestEditFileUnchangedContentOnFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/f.txt", []byte("a\nb\n"), 0o644))

	_, err := execute(t, fs, "f.txt", block("a", "A")+"\n"+block("zzz", "Z"))
	require.Error(t, err)

	data, err := afero.ReadFile(fs, "/project/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}
