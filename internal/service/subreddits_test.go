package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
)

func TestNormalizeSubreddit(t *testing.T) {
	tests := map[string]string{
		"golang":       "golang",
		"  golang  ":   "golang",
		"r/golang":     "golang",
		"R/golang":     "golang",
		"/r/golang":    "golang",
		"r/":           "r/",
		"rust_gamedev": "rust_gamedev",
	}
	for in, want := range tests {
		if got := NormalizeSubreddit(in); got != want {
			t.Errorf("NormalizeSubreddit(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSubredditService(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	var added string
	h.backend.json("GET /projects/3/subreddits", http.StatusOK, `[{"id":"s1","projectId":"3","name":"golang"}]`)
	h.backend.handle("POST /projects/3/subreddits", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		added = in.Name
		fmt.Fprintf(w, `{"id":"s2","projectId":"3","name":%q}`, in.Name)
	})
	h.backend.json("DELETE /projects/3/subreddits/s2", http.StatusNoContent, ``)

	svc := NewSubredditService(h.gateway, h.logger)
	ctx := context.Background()

	items, err := svc.List(ctx, "3")
	if err != nil || len(items) != 1 {
		t.Fatalf("List() = %+v, %v", items, err)
	}
	_ = h.cache.SetDefault(cache.PoolMentions, "proj:3?page=1", gateway.Response{})

	sub, err := svc.Add(ctx, "3", "r/rust")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added != "rust" || sub.Name != "rust" {
		t.Errorf("added = %q, sub = %+v", added, sub)
	}
	if _, ok := h.cache.Get(cache.PoolSubreddits, "proj:3"); ok {
		t.Error("subreddit list still cached after add")
	}
	if _, ok := h.cache.Get(cache.PoolMentions, "proj:3?page=1"); ok {
		t.Error("mentions still cached after subreddit add")
	}

	if err := svc.Remove(ctx, "3", "s2"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	for _, bad := range []string{"", "r/a", "has space", "way_too_long_for_a_subreddit"} {
		if _, err := svc.Add(ctx, "3", bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Add(%q) error = %v, want ErrInvalidInput", bad, err)
		}
	}
}
