// ABOUTME: Session lifecycle states and the transitions allowed between them
// ABOUTME: Loading resolves once; afterwards login and logout toggle the other two

package session

import "errors"

// State is the authentication lifecycle of the process
type State int

const (
	// Loading is the zero value: startup validation has not finished
	Loading State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidTransition means the requested move is not allowed from the current state
	ErrInvalidTransition = errors.New("session: invalid state transition")

	// ErrAlreadyInitialized is returned by Init on a store that left Loading
	ErrAlreadyInitialized = errors.New("session: already initialized")

	// ErrNotInitialized is returned by Login before Init resolved
	ErrNotInitialized = errors.New("session: not initialized")

	// ErrAlreadyAuthenticated is returned by Login while a session is active
	ErrAlreadyAuthenticated = errors.New("session: already authenticated")

	// ErrLoginInProgress is returned by Login while another login is pending
	ErrLoginInProgress = errors.New("session: login already in progress")
)

// canTransition reports whether from -> to is one of the four allowed moves
func canTransition(from, to State) bool {
	switch from {
	case Loading:
		return to == Authenticated || to == Unauthenticated
	case Unauthenticated:
		return to == Authenticated
	case Authenticated:
		return to == Unauthenticated
	}
	return false
}
