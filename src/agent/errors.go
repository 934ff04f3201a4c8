package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// Error kinds reported to the model in failed tool results.
const (
	KindFileNotFound = "FileNotFoundError"
	KindPermission   = "PermissionError"
	KindTimeout      = "TimeoutError"
	KindValue        = "ValueError"
	KindCommand      = "CommandError"
	KindNotFound     = "NotFoundError"
	KindHTTP         = "HTTPError"
	KindUnknownTool  = "UnknownToolError"
	KindPanic        = "PanicError"
	KindGeneric      = "Error"
)

var (
	ErrToolNameEmpty      = errors.New("tool name cannot be empty")
	ErrToolRegistered     = errors.New("tool is already registered")
	ErrToolNotFound       = errors.New("tool not found")
	ErrSessionRequired    = errors.New("tool requires a session context")
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
)

// ToolError is a typed tool failure.
type ToolError struct {
	Kind    string
	Message string
	Cause   error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// NewToolError builds a ToolError with a formatted message.
func NewToolError(kind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapToolError attaches a kind to cause, keeping its message.
func WrapToolError(kind string, cause error) *ToolError {
	return &ToolError{Kind: kind, Message: cause.Error(), Cause: cause}
}

// ValueErrorf reports invalid arguments.
func ValueErrorf(format string, args ...any) *ToolError {
	return NewToolError(KindValue, format, args...)
}

// PanicError is a recovered panic raised by a tool.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprint(e.Value)
}

// ErrorKind classifies err for reporting.
func ErrorKind(err error) string {
	var te *ToolError
	if errors.As(err, &te) && te.Kind != "" {
		return te.Kind
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		return KindPanic
	}
	var ee *exec.ExitError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &ee):
		return KindCommand
	case errors.Is(err, ErrToolNotFound):
		return KindUnknownTool
	}
	return KindGeneric
}

// ErrorMessage returns the user-facing message of err. Path errors report
// only the path, matching how missing files are usually described.
func ErrorMessage(err error) string {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Message
	}
	var pe *fs.PathError
	if errors.As(err, &pe) && (errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)) {
		return pe.Path
	}
	return err.Error()
}

// FailureText formats a tool failure the way it is reported to the model.
func FailureText(toolName string, err error) string {
	return fmt.Sprintf("Tool '%s' failed with %s: %s", toolName, ErrorKind(err), ErrorMessage(err))
}
