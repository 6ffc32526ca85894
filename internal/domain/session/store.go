package session

import (
	"context"
	"errors"
)

// Slot names of the persisted session. All three are written, read and cleared
// together.
const (
	SlotToken  = "auth_token"
	SlotUser   = "user_data"
	SlotExpiry = "token_expiry"
)

// TokenStore persists the session token as one unit.
// Implementations: cookie-jar file (CLI), in-memory (tests, ephemeral runs).
type TokenStore interface {
	// Load returns the stored token.
	// Returns ErrNoToken if any of the three slots is missing or unreadable;
	// partial state is never returned.
	Load(ctx context.Context) (*Token, error)

	// Save writes all three slots atomically, replacing any previous session.
	Save(ctx context.Context, token *Token) error

	// Clear removes all three slots.
	Clear(ctx context.Context) error
}

var (
	// ErrNoToken is returned when no complete session is stored.
	ErrNoToken = errors.New("no session token")

	// ErrSessionExpired is returned when the stored token is past its expiry.
	// It is detected locally; no request is sent.
	ErrSessionExpired = errors.New("session expired")

	// ErrVerificationFailed is returned by Bootstrap when the server did not
	// confirm the stored session.
	ErrVerificationFailed = errors.New("session verification failed")
)
