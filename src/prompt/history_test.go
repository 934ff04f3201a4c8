package prompt

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyPath = "/project/.rune/prompt.history"

func TestLoadHistoryMissingFile(t *testing.T) {
	h, err := LoadHistory(afero.NewMemMapFs(), historyPath, nil)
	require.NoError(t, err)
	assert.Empty(t, h.Entries())
	assert.Equal(t, historyPath, h.Path())
}

func TestHistoryAppendPersists(t *testing.T) {
	fsys := afero.NewMemMapFs()
	h, err := LoadHistory(fsys, historyPath, nil)
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, h.Append("list the files"))
	require.NoError(t, h.Append("  "))
	require.NoError(t, h.Append("fix the bug\nin main.go"))
	require.NoError(t, h.Append("fix the bug\nin main.go"))

	data, err := afero.ReadFile(fsys, historyPath)
	require.NoError(t, err)
	assert.Equal(t, "\n# 2025-03-01 12:00:00.000000\n+list the files\n"+
		"\n# 2025-03-01 12:00:00.000000\n+fix the bug\n+in main.go\n", string(data))

	reloaded, err := LoadHistory(fsys, historyPath, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"list the files", "fix the bug\nin main.go"}, reloaded.Entries())
}

func TestParseHistory(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{name: "empty", data: "", want: nil},
		{
			name: "entries",
			data: "\n# 2025-01-01 10:00:00\n+one\n\n# 2025-01-01 10:01:00\n+two\n+lines\n",
			want: []string{"one", "two\nlines"},
		},
		{name: "no timestamps", data: "+a\n+b\n", want: []string{"a\nb"}},
		{name: "empty line in entry", data: "# t\n+a\n+\n+b\n", want: []string{"a\n\nb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseHistory([]byte(tt.data)))
		})
	}
}

func TestHistorySuggest(t *testing.T) {
	h, err := LoadHistory(afero.NewMemMapFs(), historyPath, nil)
	require.NoError(t, err)
	for _, e := range []string{"run the tests", "read main.go", "run the linter"} {
		require.NoError(t, h.Append(e))
	}

	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "run", want: "run the linter"},
		{prefix: "run the t", want: "run the tests"},
		{prefix: "read main.go", want: ""},
		{prefix: "", want: ""},
		{prefix: "write", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Suggest(tt.prefix))
		})
	}
}

func TestNilHistory(t *testing.T) {
	var h *History
	assert.NoError(t, h.Append("x"))
	assert.Nil(t, h.Entries())
	assert.Empty(t, h.Suggest("x"))
}

func TestHistoryWriteFailureIsNotFatal(t *testing.T) {
	fsys := afero.NewMemMapFs()
	h, err := LoadHistory(afero.NewReadOnlyFs(fsys), historyPath, nil)
	require.NoError(t, err)

	assert.Error(t, h.Append("first"))
	h.record("second")
	assert.Equal(t, []string{"first", "second"}, h.Entries())
}
