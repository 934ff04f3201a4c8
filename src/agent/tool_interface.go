package agent

import (
	"context"
	"encoding/json"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/rune/src/session"
)

// Result is what a tool returns on success: data for the model and an
// optional rendering for the user.
type Result struct {
	Data    json.RawMessage
	Display string
}

// Tool is the interface that all tools must implement
type Tool interface {
	// GetType returns the tool type (always "function" for now)
	GetType() string

	// GetName returns the tool's name
	GetName() string

	// GetDescription returns the tool's description
	GetDescription() string

	// GetParameters returns the JSON schema for the tool's parameters
	GetParameters() *jsonschema.Schema

	// NeedsSession reports whether Execute expects a non-nil session context.
	NeedsSession() bool

	// Execute runs the tool. Failures are returned as errors, preferably
	// *ToolError so the caller can report their kind.
	Execute(ctx context.Context, sc *session.Context, args json.RawMessage) (*Result, error)
}

// Displayer is implemented by tool outputs that render themselves for the
// user.
type Displayer interface {
	Display() string
}
