package tool_readchunk

import (
	"context"
	"fmt"
	"io"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constant
const Name = "read_chunk"

const (
	DefaultLength = 4096
	MaxLength     = 1024 * 1024
)

const readChunkPrompt = `Reads a byte range of a file. Use it for files too large for read_file or when only part of a file is needed.

- offset is the byte position to start at (default 0).
- length is the number of bytes to read (default 4096, max 1 MiB).
- The result reports whether more content follows; continue with offset + read_length.`

// ReadChunkInput represents the parameters for read_chunk
type ReadChunkInput struct {
	Path   string `json:"path" required:"true" description:"The file path to read"`
	Offset int64  `json:"offset,omitempty" minimum:"0" description:"Byte offset to start reading at"`
	Length int    `json:"length,omitempty" minimum:"0" description:"Number of bytes to read"`
}

// ReadChunkOutput represents the response from read_chunk
type ReadChunkOutput struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	Offset     int64  `json:"offset"`
	ReadLength int    `json:"read_length"`
	TotalSize  int64  `json:"total_size"`
	More       bool   `json:"more"`
}

func (o ReadChunkOutput) Display() string {
	return fmt.Sprintf("Read %s bytes %d-%d of %d", o.Path, o.Offset, o.Offset+int64(o.ReadLength), o.TotalSize)
}

// Tool returns the read_chunk tool definition using GenericTool
func Tool(ws *rfs.Workspace) (agent.Tool, error) {
	return agent.NewSessionTool(Name, readChunkPrompt, makeReadChunkHandler(ws))
}

func makeReadChunkHandler(ws *rfs.Workspace) agent.SessionToolHandler[ReadChunkInput, ReadChunkOutput] {
	return func(ctx context.Context, sc *session.Context, input ReadChunkInput) (ReadChunkOutput, error) {
		fs := toolsutil.FS(ws, sc)

		if input.Offset < 0 {
			return ReadChunkOutput{}, agent.ValueErrorf("offset must not be negative")
		}
		length := input.Length
		if length <= 0 {
			length = DefaultLength
		}
		if length > MaxLength {
			length = MaxLength
		}

		info, err := fs.Stat(input.Path)
		if err != nil {
			return ReadChunkOutput{}, toolsutil.PathError(err, input.Path)
		}
		if info.IsDir() {
			return ReadChunkOutput{}, toolsutil.IsDirectoryError(input.Path)
		}

		out := ReadChunkOutput{Path: input.Path, Offset: input.Offset, TotalSize: info.Size()}
		if input.Offset >= info.Size() {
			return out, nil
		}

		f, err := fs.Open(input.Path)
		if err != nil {
			return ReadChunkOutput{}, toolsutil.PathError(err, input.Path)
		}
		defer f.Close()

		buf := make([]byte, length)
		n, err := f.ReadAt(buf, input.Offset)
		if err != nil && err != io.EOF {
			return ReadChunkOutput{}, toolsutil.PathError(err, input.Path)
		}

		out.Content = string(buf[:n])
		out.ReadLength = n
		out.More = input.Offset+int64(n) < info.Size()

		toolsutil.GetLogger().Info("chunk read", "path", input.Path, "offset", input.Offset, "bytes", n)
		return out, nil
	}
}
