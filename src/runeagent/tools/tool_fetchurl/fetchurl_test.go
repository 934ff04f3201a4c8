package tool_fetchurl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/rune/src/agent"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Test Page</title>
</head>
<body>
    <h1>Hello World</h1>
    <p>This is a test paragraph with <strong>bold text</strong>.</p>
    <script>console.log("script content");</script>
    <style>.test { color: red; }</style>
</body>
</html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testPage))
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("x", 64)))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, tool agent.Tool, input FetchURLInput) (FetchURLOutput, error) {
	t.Helper()
	args, err := json.Marshal(input)
	require.NoError(t, err)
	res, err := tool.Execute(context.Background(), nil, args)
	if err != nil {
		return FetchURLOutput{}, err
	}
	var out FetchURLOutput
	require.NoError(t, json.Unmarshal(res.Data, &out))
	return out, nil
}

func TestFetchURL(t *testing.T) {
	srv := newServer(t)
	tool, err := Tool(Config{MaxBytes: 16})
	require.NoError(t, err)
	htmlTool, err := Tool(Config{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		tool     agent.Tool
		input    FetchURLInput
		wantKind string
		wantMsg  string
		check    func(t *testing.T, out FetchURLOutput)
	}{
		{
			name:  "html page",
			tool:  htmlTool,
			input: FetchURLInput{URL: srv.URL + "/html"},
			check: func(t *testing.T, out FetchURLOutput) {
				assert.Equal(t, "success", out.Status)
				assert.Equal(t, http.StatusOK, out.StatusCode)
				assert.Equal(t, "Test Page", out.Title)
				assert.Contains(t, out.MarkdownContent, "# Hello World")
				assert.Contains(t, out.MarkdownContent, "**bold text**")
				assert.NotContains(t, out.MarkdownContent, "console.log")
			},
		},
		{
			name:  "body capped",
			tool:  tool,
			input: FetchURLInput{URL: srv.URL + "/text"},
			check: func(t *testing.T, out FetchURLOutput) {
				assert.Equal(t, strings.Repeat("x", 16), out.MarkdownContent)
			},
		},
		{
			name:     "http error",
			tool:     htmlTool,
			input:    FetchURLInput{URL: srv.URL + "/missing"},
			wantKind: agent.KindHTTP,
			wantMsg:  "HTTP error 404 visiting " + srv.URL + "/missing",
		},
		{
			name:     "timeout",
			tool:     htmlTool,
			input:    FetchURLInput{URL: srv.URL + "/slow", Timeout: 0.05},
			wantKind: agent.KindHTTP,
			wantMsg:  "Network error visiting " + srv.URL + "/slow",
		},
		{
			name:     "bad scheme",
			tool:     htmlTool,
			input:    FetchURLInput{URL: "ftp://example.com"},
			wantKind: agent.KindValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.tool, tt.input)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, agent.ErrorKind(err))
				assert.True(t, strings.HasPrefix(agent.ErrorMessage(err), tt.wantMsg))
				return
			}
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}
