// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"sync"

	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

// TokenStore implements session.TokenStore with a guarded in-memory value.
// Nothing survives the process. Used by tests and ephemeral CLI runs.
type TokenStore struct {
	mu    sync.RWMutex
	token *session.Token
}

// NewTokenStore creates an empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Load returns a copy of the stored token or session.ErrNoToken.
func (s *TokenStore) Load(ctx context.Context) (*session.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil, session.ErrNoToken
	}
	tok := *s.token
	return &tok, nil
}

// Save replaces the stored token with a copy of tok.
func (s *TokenStore) Save(ctx context.Context, tok *session.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tok
	s.token = &cp
	return nil
}

// Clear removes the stored token.
func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
	return nil
}

// Compile-time interface verification.
var _ session.TokenStore = (*TokenStore)(nil)
