package predict

import (
	"errors"
	"strings"
)

// User facing messages.
const (
	MsgNoResponse      = "No response from server. Please check your connection."
	MsgRequestSetup    = "Error setting up the request."
	MsgGeneric         = "An error occurred"
	MsgInvalidResponse = "Received an invalid response from the prediction service."
)

var (
	// ErrContractViolation marks payloads rejected by the API contract.
	ErrContractViolation = errors.New("predict: payload violates API contract")
	// ErrMalformedResponse marks 2xx responses that could not be interpreted.
	ErrMalformedResponse = errors.New("predict: malformed response")
)

// Error is returned for every failed call. Message is the single line shown
// to the user; Status is the HTTP status when a response arrived.
type Error struct {
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "predict: " + e.Message
	}
	return "predict: " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage extracts the message to display for err. Errors not produced by
// this package fall back to MsgGeneric.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var perr *Error
	if errors.As(err, &perr) && strings.TrimSpace(perr.Message) != "" {
		return perr.Message
	}
	return MsgGeneric
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// message picks the server supplied text: message first, then error.
func (b errorBody) message() string {
	if msg := strings.TrimSpace(b.Message); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(b.Error); msg != "" {
		return msg
	}
	return MsgGeneric
}
