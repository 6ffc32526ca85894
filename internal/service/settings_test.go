package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestSettingsService(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	var received ProjectSettings
	h.backend.json("GET /projects/5/settings", http.StatusOK,
		`{"projectId":"5","notifyEmail":true,"digestFrequency":"daily","minScore":3}`)
	h.backend.handle("PUT /projects/5/settings", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(received)
	})

	svc := NewSettingsService(h.gateway, h.logger)
	ctx := context.Background()

	got, err := svc.Get(ctx, "5")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.NotifyEmail || got.DigestFrequency != "daily" || got.MinScore != 3 {
		t.Errorf("Get() = %+v", got)
	}
	_, _ = svc.Get(ctx, "5")
	if n := h.backend.count(http.MethodGet, "/projects/5/settings"); n != 1 {
		t.Errorf("GET hits = %d, want 1", n)
	}

	updated, err := svc.Update(ctx, "5", ProjectSettings{DigestFrequency: "weekly", MinScore: 10})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if received.ProjectID != "5" || updated.DigestFrequency != "weekly" {
		t.Errorf("received = %+v, updated = %+v", received, updated)
	}

	_, _ = svc.Get(ctx, "5")
	if n := h.backend.count(http.MethodGet, "/projects/5/settings"); n != 2 {
		t.Errorf("GET hits = %d, want 2 after update", n)
	}

	if _, err := svc.Update(ctx, "5", ProjectSettings{DigestFrequency: "hourly"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Update(hourly) error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Update(ctx, "5", ProjectSettings{MinScore: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Update(negative score) error = %v, want ErrInvalidInput", err)
	}
}
