package services

import (
	"errors"
	"fmt"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
)

var (
	ErrUnknownAccount = errors.New("unknown account")
	ErrInvalidInput   = errors.New("invalid input")
	ErrPersonalScope  = errors.New("operation needs a shared account")

	ErrUnrecognisedPayload = errors.New("unrecognised response payload")
)

// MutationError is returned by user-initiated operations. Error() is the
// message to show the user; Unwrap exposes the cause.
type MutationError struct {
	Op      string
	Class   client.Class
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *MutationError) Unwrap() error { return e.Err }

// mutationFailed wraps a backend failure of op.
func mutationFailed(op string, err error) *MutationError {
	return &MutationError{
		Op:      op,
		Class:   client.Classify(err),
		Message: client.Message(err),
		Err:     err,
	}
}

// invalid rejects op before any network call.
func invalid(op, message string) *MutationError {
	return &MutationError{
		Op:      op,
		Class:   client.ClassRejected,
		Message: message,
		Err:     ErrInvalidInput,
	}
}
