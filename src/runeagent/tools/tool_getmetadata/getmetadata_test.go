package tool_getmetadata

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

func TestGetMetadataTool(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/test_file.txt", []byte("hello"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/project/page.html", []byte("<!DOCTYPE html><html><body>hi</body></html>"), 0o644))
	require.NoError(t, fs.MkdirAll("/project/test_dir", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/tmp/outside.txt", []byte("x"), 0o644))

	tool, err := Tool(rfs.NewWorkspace(fs, "/project"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantKind string
		check    func(t *testing.T, out GetMetadataOutput, res *agent.Result)
	}{
		{
			name: "file",
			path: "test_file.txt",
			check: func(t *testing.T, out GetMetadataOutput, res *agent.Result) {
				assert.Equal(t, "test_file.txt", out.Path)
				assert.Equal(t, "file", out.Type)
				assert.Equal(t, int64(5), out.Size)
				assert.True(t, strings.HasPrefix(out.MimeType, "text/plain"))
				assert.Contains(t, res.Display, "5 B")
			},
		},
		{
			name: "html file",
			path: "page.html",
			check: func(t *testing.T, out GetMetadataOutput, _ *agent.Result) {
				assert.True(t, strings.HasPrefix(out.MimeType, "text/html"))
				assert.Equal(t, "html", out.Language)
			},
		},
		{
			name: "directory",
			path: "test_dir",
			check: func(t *testing.T, out GetMetadataOutput, _ *agent.Result) {
				assert.Equal(t, "dir", out.Type)
				assert.Empty(t, out.MimeType)
				assert.True(t, strings.HasPrefix(out.Mode, "d"))
			},
		},
		{
			name:     "not found",
			path:     "non_existent_file.txt",
			wantKind: agent.KindFileNotFound,
		},
		{
			name:     "outside project",
			path:     "/tmp/outside.txt",
			wantKind: agent.KindPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := json.Marshal(GetMetadataInput{Path: tt.path})
			require.NoError(t, err)

			res, err := tool.Execute(context.Background(), session.NewContext("/project"), args)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, agent.ErrorKind(err))
				return
			}
			require.NoError(t, err)

			var out GetMetadataOutput
			require.NoError(t, json.Unmarshal(res.Data, &out))
			tt.check(t, out, res)
		})
	}
}
