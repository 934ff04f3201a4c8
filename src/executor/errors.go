package executor

import "errors"

var (
	// Configuration errors
	ErrModelRequired   = errors.New("model is required")
	ErrToolboxRequired = errors.New("toolbox is required")

	// Request errors
	ErrEmptyInput       = errors.New("turn input is empty")
	ErrContextRequired  = errors.New("session context is required")
	ErrTurnInProgress   = errors.New("a turn is already running")
	ErrInterruptReused  = errors.New("interrupt belongs to a finished turn")
	ErrSinkClosed       = errors.New("event sink is closed")
	ErrSinkFull         = errors.New("event sink buffer is full")
	ErrModelRequestFail = errors.New("model request failed")
)
