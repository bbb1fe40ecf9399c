package negotiate

import (
	"errors"
	"fmt"
)

var (
	ErrTransportFailed  = errors.New("transport failed")
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrBadSignal        = errors.New("malformed signal payload")
)

// SessionError wraps a negotiation failure with the operation that produced
// it.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}
