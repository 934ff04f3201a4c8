// Package prompt reads user input for the interactive chat, either through a
// multi-line terminal editor or line by line from a plain stream.
package prompt

import (
	"context"
	"errors"
)

// ErrAborted is returned when the user presses Ctrl-C at the prompt.
var ErrAborted = errors.New("prompt aborted")

// Reader returns one submission per call. It returns io.EOF once input ends.
type Reader interface {
	Read(ctx context.Context) (string, error)
}
