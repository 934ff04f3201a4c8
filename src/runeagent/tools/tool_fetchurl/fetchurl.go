package tool_fetchurl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/elee1766/rune/src/agent"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
)

// Tool name constant
const Name = "fetch_url"

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 5 * 1024 * 1024
)

const fetchURLPrompt = `Fetches a web page and returns its content converted to markdown.

- Use it to read documentation, issues or any other page the user points to.
- Only http and https URLs are supported.
- timeout is in seconds (default 10).
- Pages that answer with an HTTP error status fail with the status code.`

// FetchURLInput represents the parameters for fetch_url
type FetchURLInput struct {
	URL     string  `json:"url" required:"true" description:"The URL to fetch"`
	Timeout float64 `json:"timeout,omitempty" minimum:"0" description:"Timeout in seconds (default 10)"`
}

// FetchURLOutput represents the response from fetch_url
type FetchURLOutput struct {
	URL             string `json:"url"`
	Status          string `json:"status"`
	StatusCode      int    `json:"status_code"`
	Title           string `json:"title,omitempty"`
	MarkdownContent string `json:"markdown_content"`
}

func (o FetchURLOutput) Display() string {
	title := o.Title
	if title == "" {
		title = o.URL
	}
	return fmt.Sprintf("Fetched %s (%d, %d chars)", title, o.StatusCode, len(o.MarkdownContent))
}

// Config controls the HTTP side of fetch_url.
type Config struct {
	Client   *http.Client
	MaxBytes int64
}

// Tool returns the fetch_url tool definition using GenericTool
func Tool(cfg Config) (agent.Tool, error) {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return agent.NewGenericTool(Name, fetchURLPrompt, makeFetchURLHandler(cfg))
}

func makeFetchURLHandler(cfg Config) agent.GenericToolHandler[FetchURLInput, FetchURLOutput] {
	return func(ctx context.Context, input FetchURLInput) (FetchURLOutput, error) {
		if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
			return FetchURLOutput{}, agent.ValueErrorf("URL must start with http:// or https://")
		}

		timeout := DefaultTimeout
		if input.Timeout > 0 {
			timeout = time.Duration(input.Timeout * float64(time.Second))
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
		if err != nil {
			return FetchURLOutput{}, agent.ValueErrorf("invalid URL: %v", err)
		}
		req.Header.Set("User-Agent", "rune/1.0")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := cfg.Client.Do(req)
		if err != nil {
			return FetchURLOutput{}, &agent.ToolError{
				Kind:    agent.KindHTTP,
				Message: fmt.Sprintf("Network error visiting %s: %v", input.URL, err),
				Cause:   err,
			}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return FetchURLOutput{}, agent.NewToolError(agent.KindHTTP, "HTTP error %d visiting %s", resp.StatusCode, input.URL)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBytes))
		if err != nil {
			return FetchURLOutput{}, &agent.ToolError{
				Kind:    agent.KindHTTP,
				Message: fmt.Sprintf("Network error visiting %s: %v", input.URL, err),
				Cause:   err,
			}
		}

		out := FetchURLOutput{
			URL:        resp.Request.URL.String(),
			Status:     "success",
			StatusCode: resp.StatusCode,
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" || strings.Contains(contentType, "html") {
			out.Title, out.MarkdownContent = convertHTML(string(body))
		} else {
			out.MarkdownContent = string(body)
		}

		toolsutil.GetLogger().Info("fetched url",
			"url", input.URL,
			"status", resp.StatusCode,
			"size", len(body),
		)
		return out, nil
	}
}

// convertHTML returns the page title and its markdown rendering. Pages that
// fail to convert are returned as-is.
func convertHTML(html string) (string, string) {
	var title string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "noscript")
	markdown, err := converter.ConvertString(html)
	if err != nil {
		toolsutil.GetLogger().Warn("failed to convert HTML to markdown", "error", err)
		return title, html
	}

	markdown = strings.TrimSpace(markdown)
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return title, markdown
}
