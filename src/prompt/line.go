package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/elee1766/rune/src/theme"
)

// LineReader reads submissions line by line from a plain stream. A line
// ending in a backslash continues on the next line.
type LineReader struct {
	out     io.Writer
	history *History
	lines   chan string
	errs    chan error
}

// NewLineReader starts reading in. Submissions are recorded in history when
// it is not nil.
func NewLineReader(in io.Reader, out io.Writer, history *History) *LineReader {
	r := &LineReader{
		out:     out,
		history: history,
		lines:   make(chan string),
		errs:    make(chan error, 1),
	}
	go r.scan(in)
	return r
}

func (r *LineReader) scan(in io.Reader) {
	defer close(r.lines)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		r.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		r.errs <- err
	}
}

// Read prints the prompt and returns the next submission.
func (r *LineReader) Read(ctx context.Context) (string, error) {
	fmt.Fprint(r.out, theme.Prompt.Render("> "))

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-r.lines:
			if !ok {
				fmt.Fprintln(r.out)
				select {
				case err := <-r.errs:
					return "", fmt.Errorf("failed to read input: %w", err)
				default:
				}
				if len(parts) > 0 {
					return r.submit(strings.Join(parts, "\n")), nil
				}
				return "", io.EOF
			}
			if rest, more := strings.CutSuffix(line, `\`); more {
				parts = append(parts, rest)
				fmt.Fprint(r.out, theme.Notice.Render(". "))
				continue
			}
			parts = append(parts, line)
			return r.submit(strings.Join(parts, "\n")), nil
		}
	}
}

func (r *LineReader) submit(text string) string {
	r.history.record(text)
	return text
}
