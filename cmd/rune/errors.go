package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"

	"github.com/elee1766/rune/src/app"
	"github.com/elee1766/rune/src/config"
	"github.com/elee1766/rune/src/orclient"
	"github.com/elee1766/rune/src/session"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAPI         = 4 // Model API error
	ExitSession     = 5 // Session storage error
	ExitInterrupted = 8 // Interrupted by user
)

var (
	errConfig      = errors.New("configuration error")
	errSession     = errors.New("session error")
	errUsage       = errors.New("usage error")
	errInterrupted = errors.New("interrupted")
)

// handleError reports err on stderr and returns the exit code for it.
func handleError(err error, logger *slog.Logger) int {
	code := exitCode(err)
	logger.Debug("command failed", "error", err, "exit_code", code)
	if code != ExitInterrupted {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var (
		parseErr      *kong.ParseError
		validationErr config.ValidationError
		apiErr        *orclient.APIError
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errInterrupted),
		errors.Is(err, huh.ErrUserAborted),
		errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &parseErr), errors.Is(err, errUsage):
		return ExitUsage
	case errors.Is(err, errConfig), errors.As(err, &validationErr):
		return ExitConfig
	case errors.As(err, &apiErr),
		errors.Is(err, orclient.ErrNoAPIKey),
		errors.Is(err, orclient.ErrModelNotFound),
		errors.Is(err, orclient.ErrEmptyResponse),
		errors.Is(err, app.ErrModelWithoutTools):
		return ExitAPI
	case errors.Is(err, errSession),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, app.ErrSaveFailed):
		return ExitSession
	default:
		return ExitError
	}
}
