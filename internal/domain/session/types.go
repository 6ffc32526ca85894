// Package session owns the authenticated session of the dashboard client: the
// persisted token, the state machine around it, and the periodic re-check that
// detects server-side revocation.
package session

import (
	"errors"
	"time"
)

// State is the authentication state of the client.
type State int

const (
	// StateUnauthenticated means no usable token is held.
	StateUnauthenticated State = iota
	// StateAuthenticated means a token is held and has not been rejected.
	StateAuthenticated
	// StateExpired is reported to listeners while an expired session is being torn
	// down. It always settles to StateUnauthenticated.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// User is the account record returned by the backend on every auth flow.
type User struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Picture string `json:"picture,omitempty" yaml:"picture,omitempty"`
}

// Token is the persisted session: the opaque bearer token, the user it belongs to
// and the absolute instant after which it must not be presented to the backend.
type Token struct {
	Value     string
	User      User
	ExpiresAt time.Time
}

// IsExpired reports whether the token can no longer be used at now.
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Validate checks that the token is complete and still usable at now.
func (t *Token) Validate(now time.Time) error {
	if t.Value == "" {
		return errors.New("session token is empty")
	}
	if t.ExpiresAt.IsZero() {
		return errors.New("session token has no expiry")
	}
	if t.IsExpired(now) {
		return ErrSessionExpired
	}
	return nil
}
