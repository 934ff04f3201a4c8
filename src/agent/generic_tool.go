package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/swaggest/jsonschema-go"

	"github.com/elee1766/rune/src/session"
)

// GenericToolHandler is a type-safe handler function
type GenericToolHandler[TInput any, TOutput any] func(ctx context.Context, input TInput) (TOutput, error)

// SessionToolHandler is a type-safe handler that also receives the session
// context.
type SessionToolHandler[TInput any, TOutput any] func(ctx context.Context, sc *session.Context, input TInput) (TOutput, error)

// GenericTool adapts a typed handler to the Tool interface. Its parameter
// schema is reflected from TInput.
type GenericTool[TInput any, TOutput any] struct {
	Type         string
	Name         string
	Description  string
	Schema       *jsonschema.Schema
	handler      SessionToolHandler[TInput, TOutput]
	needsSession bool
}

// Ensure GenericTool implements the Tool interface
var _ Tool = (*GenericTool[struct{}, struct{}])(nil)

func (gt *GenericTool[TInput, TOutput]) GetType() string {
	return gt.Type
}

func (gt *GenericTool[TInput, TOutput]) GetName() string {
	return gt.Name
}

func (gt *GenericTool[TInput, TOutput]) GetDescription() string {
	return gt.Description
}

func (gt *GenericTool[TInput, TOutput]) GetParameters() *jsonschema.Schema {
	return gt.Schema
}

func (gt *GenericTool[TInput, TOutput]) NeedsSession() bool {
	return gt.needsSession
}

// Execute decodes args into TInput, checks required fields and runs the
// handler.
func (gt *GenericTool[TInput, TOutput]) Execute(ctx context.Context, sc *session.Context, args json.RawMessage) (*Result, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	var input TInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, ValueErrorf("failed to parse input: %v", err)
	}
	if err := gt.validateRequired(args); err != nil {
		return nil, err
	}

	output, err := gt.handler(ctx, sc, input)
	if err != nil {
		return nil, err
	}
	return marshalResult(output)
}

// validateRequired checks that every required property is present and not
// null.
func (gt *GenericTool[TInput, TOutput]) validateRequired(args json.RawMessage) error {
	if gt.Schema == nil || len(gt.Schema.Required) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return ValueErrorf("arguments must be an object: %v", err)
	}
	for _, name := range gt.Schema.Required {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return ValueErrorf("required field '%s' is missing", name)
		}
	}
	return nil
}

// NewGenericTool creates a tool that does not use the session context.
func NewGenericTool[TInput any, TOutput any](name, description string, handler GenericToolHandler[TInput, TOutput]) (Tool, error) {
	return newGenericTool(name, description, false,
		func(ctx context.Context, _ *session.Context, input TInput) (TOutput, error) {
			return handler(ctx, input)
		})
}

// NewSessionTool creates a tool whose handler receives the session context.
func NewSessionTool[TInput any, TOutput any](name, description string, handler SessionToolHandler[TInput, TOutput]) (Tool, error) {
	return newGenericTool(name, description, true, handler)
}

// MustNewGenericTool creates a new generic tool and panics on error
func MustNewGenericTool[TInput any, TOutput any](name, description string, handler GenericToolHandler[TInput, TOutput]) Tool {
	tool, err := NewGenericTool(name, description, handler)
	if err != nil {
		panic(fmt.Sprintf("failed to create generic tool: %v", err))
	}
	return tool
}

func newGenericTool[TInput any, TOutput any](name, description string, needsSession bool, handler SessionToolHandler[TInput, TOutput]) (*GenericTool[TInput, TOutput], error) {
	if name == "" {
		return nil, ErrToolNameEmpty
	}

	var input TInput
	if kind := reflect.TypeOf(input).Kind(); kind != reflect.Struct {
		return nil, fmt.Errorf("tool input type must be a struct, got %s", kind)
	}

	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(input, jsonschema.InlineRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	return &GenericTool[TInput, TOutput]{
		Type:         "function",
		Name:         name,
		Description:  description,
		Schema:       &schema,
		handler:      handler,
		needsSession: needsSession,
	}, nil
}
