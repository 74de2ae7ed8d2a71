package wizard

import "errors"

var (
	// ErrStepInvalid is returned by Next when a field of the step fails.
	ErrStepInvalid = errors.New("wizard: step has invalid fields")
	// ErrAtFirstStep is returned by Back on the first step.
	ErrAtFirstStep = errors.New("wizard: already at first step")
	// ErrSubmissionInFlight rejects actions while a prediction is pending.
	ErrSubmissionInFlight = errors.New("wizard: submission in flight")
	// ErrSubmissionFailed wraps prediction failures; the form keeps a
	// user-facing message.
	ErrSubmissionFailed = errors.New("wizard: submission failed")
	// ErrStaleResponse marks a response discarded after Reset or Close.
	ErrStaleResponse = errors.New("wizard: stale response discarded")
	// ErrHistoryNotSaved reports a successful prediction whose record could
	// not be persisted.
	ErrHistoryNotSaved = errors.New("wizard: prediction not saved to history")
	// ErrComplete is returned by Next in the result phase.
	ErrComplete = errors.New("wizard: prediction already complete")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("wizard: controller closed")
)
