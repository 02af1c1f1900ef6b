package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned when the text is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMalformedEvent marks inbound events rejected at the wire boundary.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrClientStopped is returned by Client calls made after Run has exited.
	ErrClientStopped = errors.New("chat client stopped")
)

// MissingSelectionError reports that no counterpart has been chosen yet.
type MissingSelectionError struct {
	Role Role
}

func (e *MissingSelectionError) Error() string {
	return fmt.Sprintf("select a %s before sending", e.Role.Other())
}

// TransportError wraps a failure of the message channel.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// LookupError reports a failed display name lookup. The thread still gets
// created under the fallback label.
type LookupError struct {
	Role Role
	ID   int64
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s %d: %v", e.Role, e.ID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
