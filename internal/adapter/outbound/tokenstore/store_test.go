package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*FileStore, *fixedClock) {
	t.Helper()
	clock := &fixedClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")
	return NewFileStore(path, Options{MaxAge: 24 * time.Hour, Clock: clock, Logger: testLogger()}), clock
}

func testToken(clock *fixedClock) *session.Token {
	return &session.Token{
		Value:     "tok-abc",
		User:      session.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", Picture: "https://img/1.png"},
		ExpiresAt: clock.Now().Add(12 * time.Hour),
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)
	want := testToken(clock)

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Value != want.Value || got.User != want.User || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestFileStore_WritesThreeNamedSlots(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)
	if err := s.Save(ctx, testToken(clock)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var j jar
	if err := json.Unmarshal(data, &j); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	names := map[string]string{}
	for _, c := range j.Cookies {
		names[c.Name] = c.Value
		if !c.Expires.Equal(j.Cookies[0].Expires) {
			t.Errorf("cookie %s lifetime differs from the others", c.Name)
		}
	}
	if len(names) != 3 {
		t.Fatalf("cookies = %v, want exactly three", names)
	}
	if names[session.SlotToken] != "tok-abc" {
		t.Errorf("auth_token = %q", names[session.SlotToken])
	}
	if names[session.SlotExpiry] != "2026-05-01T21:00:00Z" {
		t.Errorf("token_expiry = %q, want ISO-8601 instant", names[session.SlotExpiry])
	}
	var u session.User
	if err := json.Unmarshal([]byte(names[session.SlotUser]), &u); err != nil || u.Email != "ada@example.com" {
		t.Errorf("user_data = %q, want JSON user record", names[session.SlotUser])
	}
}

func TestFileStore_FilePermissions(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("unix permissions only")
	}
	ctx := context.Background()
	s, clock := newTestStore(t)
	if err := s.Save(ctx, testToken(clock)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %04o, want 0600", perm)
	}
	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Load(context.Background()); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("Load() error = %v, want ErrNoToken", err)
	}
}

func TestFileStore_Clear(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)
	_ = s.Save(ctx, testToken(clock))

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("Load() after Clear() error = %v, want ErrNoToken", err)
	}
	// Clearing twice is fine.
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestFileStore_CookieLifetime(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)
	_ = s.Save(ctx, testToken(clock))

	clock.Advance(24 * time.Hour)
	if _, err := s.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("Load() after cookie lifetime error = %v, want ErrNoToken", err)
	}
}

func TestFileStore_PartialStateIsAbsent(t *testing.T) {
	expires := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	full := []cookie{
		{Name: session.SlotToken, Value: "tok", Expires: expires},
		{Name: session.SlotUser, Value: `{"id":"u","name":"n","email":"e@x"}`, Expires: expires},
		{Name: session.SlotExpiry, Value: "2026-05-01T12:00:00Z", Expires: expires},
	}

	tests := []struct {
		name    string
		cookies []cookie
		raw     string
	}{
		{name: "token without expiry", cookies: full[:2]},
		{name: "expiry without token", cookies: full[1:]},
		{name: "token only", cookies: full[:1]},
		{name: "unparsable expiry", cookies: []cookie{full[0], full[1], {Name: session.SlotExpiry, Value: "tomorrow", Expires: expires}}},
		{name: "unparsable user", cookies: []cookie{full[0], {Name: session.SlotUser, Value: "{", Expires: expires}, full[2]}},
		{name: "one slot past lifetime", cookies: []cookie{full[0], full[1], {Name: session.SlotExpiry, Value: full[2].Value, Expires: expires.Add(-48 * time.Hour)}}},
		{name: "corrupt jar", raw: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			if err := os.MkdirAll(filepath.Dir(s.Path()), 0o700); err != nil {
				t.Fatal(err)
			}
			data := []byte(tt.raw)
			if tt.raw == "" {
				data, _ = json.Marshal(jar{Cookies: tt.cookies})
			}
			if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
				t.Fatal(err)
			}

			if _, err := s.Load(context.Background()); !errors.Is(err, session.ErrNoToken) {
				t.Errorf("Load() error = %v, want ErrNoToken", err)
			}
			if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
				t.Error("partial jar was not removed")
			}
		})
	}
}

func TestFileStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)
	_ = s.Save(ctx, testToken(clock))

	next := testToken(clock)
	next.Value = "tok-next"
	next.User.ID = "u-2"
	if err := s.Save(ctx, next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Value != "tok-next" || got.User.ID != "u-2" {
		t.Errorf("Load() = %+v, want replaced token", got)
	}
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Save(ctx, testToken(clock))
		}()
	}
	wg.Wait()

	if _, err := s.Load(ctx); err != nil {
		t.Errorf("Load() after concurrent saves error = %v", err)
	}
}
