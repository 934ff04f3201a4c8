package tool_getmetadata

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/elee1766/rune/src/agent"
	rfs "github.com/elee1766/rune/src/fs"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
	"github.com/elee1766/rune/src/session"
)

// Tool name constant
const Name = "get_metadata"

const getMetadataPrompt = `Returns metadata about a file or directory: its type, size, permissions, modification time and, for files, the detected MIME type. Symlinks are reported as such and not followed.`

// GetMetadataInput represents the parameters for get_metadata
type GetMetadataInput struct {
	Path string `json:"path" required:"true" description:"The path to inspect"`
}

// GetMetadataOutput represents the response from get_metadata
type GetMetadataOutput struct {
	Path     string    `json:"path"`
	Type     string    `json:"type"`
	Size     int64     `json:"size"`
	Mode     string    `json:"mode"`
	Modified time.Time `json:"modified"`
	MimeType string    `json:"mime_type,omitempty"`
	Language string    `json:"language,omitempty"`
}

func (o GetMetadataOutput) Display() string {
	s := fmt.Sprintf("%s %s %s, modified %s", o.Path, o.Type, humanize.IBytes(uint64(o.Size)), humanize.Time(o.Modified))
	if o.MimeType != "" {
		s += " (" + o.MimeType + ")"
	}
	return s
}

// Tool returns the get_metadata tool definition using GenericTool
func Tool(ws *rfs.Workspace) (agent.Tool, error) {
	return agent.NewSessionTool(Name, getMetadataPrompt, makeGetMetadataHandler(ws))
}

func makeGetMetadataHandler(ws *rfs.Workspace) agent.SessionToolHandler[GetMetadataInput, GetMetadataOutput] {
	return func(ctx context.Context, sc *session.Context, input GetMetadataInput) (GetMetadataOutput, error) {
		fs := toolsutil.FS(ws, sc)

		info, _, err := fs.LstatIfPossible(input.Path)
		if err != nil {
			return GetMetadataOutput{}, toolsutil.PathError(err, input.Path)
		}

		out := GetMetadataOutput{
			Path:     input.Path,
			Size:     info.Size(),
			Mode:     info.Mode().String(),
			Modified: info.ModTime().UTC(),
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			out.Type = "symlink"
		case info.IsDir():
			out.Type = "dir"
		default:
			out.Type = "file"
			out.Language = toolsutil.DetectLanguage(input.Path)
			if f, err := fs.Open(input.Path); err == nil {
				if mt, err := mimetype.DetectReader(f); err == nil {
					out.MimeType = mt.String()
				}
				f.Close()
			}
		}

		toolsutil.GetLogger().Debug("metadata read", "path", input.Path, "type", out.Type)
		return out, nil
	}
}
