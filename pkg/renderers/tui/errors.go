package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrCancelled is returned when the user leaves the wizard before any
	// prediction completed.
	ErrCancelled = errors.New("tui: cancelled")
)
