// Package tokenstore persists the session token in a cookie-jar file.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

// DefaultMaxAge is the cookie lifetime applied to all three slots.
const DefaultMaxAge = 7 * 24 * time.Hour

// Options configures a FileStore.
type Options struct {
	// MaxAge is the lifetime of the persisted cookies. Default: 7 days.
	MaxAge time.Duration
	// Clock is the time source for cookie lifetimes. Default: wall clock.
	Clock cache.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// FileStore implements session.TokenStore on a single JSON file.
//
// The three slots live in one document so that they are written and cleared as
// a unit: writes go to path+".tmp", are fsynced and renamed over path while
// holding an in-process mutex and a cross-process lock on path+".lock".
type FileStore struct {
	path   string
	maxAge time.Duration
	clock  cache.Clock
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a FileStore for the given path. The file is created on the
// first Save.
func NewFileStore(path string, opts Options) *FileStore {
	s := &FileStore{
		path:   path,
		maxAge: opts.MaxAge,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if s.maxAge <= 0 {
		s.maxAge = DefaultMaxAge
	}
	if s.clock == nil {
		s.clock = cache.SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Path returns the configured file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the jar and returns the token it holds.
// A missing file, a slot past its cookie lifetime, or any unreadable slot yields
// session.ErrNoToken; a jar in such a partial state is removed.
func (s *FileStore) Load(ctx context.Context) (*session.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, session.ErrNoToken
		}
		return nil, fmt.Errorf("read token store: %w", err)
	}

	// The jar holds a bearer token; warn if anyone but the owner can read it.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(s.path); statErr == nil {
			if mode := info.Mode().Perm(); mode&0077 != 0 {
				s.logger.Warn("token store has too-open permissions, should be 0600",
					"path", s.path, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	tok, reason := s.decode(data)
	if reason != "" {
		s.logger.Info("discarding incomplete session", "path", s.path, "reason", reason)
		if err := s.removeLocked(); err != nil {
			s.logger.Warn("failed to remove incomplete session", "error", err)
		}
		return nil, session.ErrNoToken
	}
	return tok, nil
}

// decode extracts the token from a jar, or returns why it cannot.
func (s *FileStore) decode(data []byte) (*session.Token, string) {
	var j jar
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, "unparsable jar"
	}

	now := s.clock.Now()
	slots := make(map[string]string, 3)
	for _, c := range j.Cookies {
		if !now.Before(c.Expires) {
			continue
		}
		slots[c.Name] = c.Value
	}

	value, okToken := slots[session.SlotToken]
	rawUser, okUser := slots[session.SlotUser]
	rawExpiry, okExpiry := slots[session.SlotExpiry]
	if !okToken || !okUser || !okExpiry || value == "" {
		return nil, "missing slot"
	}

	var user session.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, "unparsable user record"
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, rawExpiry)
	if err != nil {
		return nil, "unparsable expiry"
	}

	return &session.Token{Value: value, User: user, ExpiresAt: expiresAt}, ""
}

// Save writes all three slots in one atomic replace.
func (s *FileStore) Save(ctx context.Context, tok *session.Token) error {
	userJSON, err := json.Marshal(tok.User)
	if err != nil {
		return fmt.Errorf("marshal user record: %w", err)
	}

	now := s.clock.Now().UTC()
	expires := now.Add(s.maxAge)
	j := jar{
		Cookies: []cookie{
			{Name: session.SlotToken, Value: tok.Value, Expires: expires},
			{Name: session.SlotUser, Value: string(userJSON), Expires: expires},
			{Name: session.SlotExpiry, Value: tok.ExpiresAt.UTC().Format(time.RFC3339Nano), Expires: expires},
		},
		UpdatedAt: now,
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token store: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token store directory: %w", err)
	}
	return s.withFileLock(func() error {
		if err := s.writeAtomic(data); err != nil {
			return err
		}
		s.logger.Debug("session stored", "path", s.path)
		return nil
	})
}

// Clear removes the jar. A missing jar is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked()
}

func (s *FileStore) removeLocked() error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return s.withFileLock(func() error {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove token store: %w", err)
		}
		return nil
	})
}

// withFileLock runs fn while holding the cross-process lock.
func (s *FileStore) withFileLock(fn func() error) error {
	lockPath := s.path + ".lock"
	lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lf.Close() }()

	if err := lockFile(lf.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer unlockFile(lf.Fd()) //nolint:errcheck

	return fn()
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it over the
// target path. On any error the temp file is cleaned up.
func (s *FileStore) writeAtomic(data []byte) error {
	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Compile-time interface verification.
var _ session.TokenStore = (*FileStore)(nil)
