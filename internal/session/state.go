package session

import "github.com/roktofy/client/internal/model"

// Status is the authentication status of a session
type Status int

const (
	Anonymous Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot handed to subscribers
type State struct {
	Status Status
	User   *model.User
	// Err is the message of the last failed operation, empty after a success
	Err string
}

// Error is returned by every failing session operation. Its message is
// meant for display.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }
