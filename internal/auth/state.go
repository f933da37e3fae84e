// Package auth owns the session lifecycle: cold-start restoration,
// login/signup, logout, and periodic revalidation.
package auth

import (
	"errors"

	"github.com/ecotrace/ecotrace-go/internal/api"
)

// ErrNotSignedIn is returned by operations that require an
// authenticated session.
var ErrNotSignedIn = errors.New("not signed in")

// Status is the authentication lifecycle phase.
type Status int

const (
	// Initializing means session restoration has not finished yet.
	// Consumers must not treat it as either logged-in or logged-out.
	Initializing Status = iota
	Authenticated
	Unauthenticated
)

// String returns the status display name.
func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "initializing"
	}
}

// State is the authentication state. User is non-nil exactly when
// Status is Authenticated.
type State struct {
	Status Status
	User   *api.User
}
