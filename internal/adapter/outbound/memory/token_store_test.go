package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

func TestTokenStore_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTokenStore()

	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Fatalf("Load() on empty store error = %v, want ErrNoToken", err)
	}

	tok := &session.Token{
		Value:     "tok-1",
		User:      session.User{ID: "u-1", Name: "Grace"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := store.Save(ctx, tok); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the caller's value must not leak into the store.
	tok.Value = "mutated"

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Value != "tok-1" {
		t.Errorf("Value = %q, want %q", got.Value, "tok-1")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("Load() after Clear() error = %v, want ErrNoToken", err)
	}
}
