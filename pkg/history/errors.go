package history

import "errors"

var (
	// ErrRecordNotFound is returned when an ID does not match any record.
	ErrRecordNotFound = errors.New("history: record not found")
	// ErrNoPendingDelete is returned by ConfirmDelete without a prior mark.
	ErrNoPendingDelete = errors.New("history: no delete pending")
)
