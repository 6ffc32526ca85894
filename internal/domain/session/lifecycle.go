package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
)

// DefaultRecheckInterval is how often an authenticated session is re-verified.
const DefaultRecheckInterval = 5 * time.Minute

// Verifier performs the lightweight server-side check of the current session.
// Any error is treated as session loss.
type Verifier interface {
	Verify(ctx context.Context) (*User, error)
}

// CacheClearer drops every cached response. Called on logout so that a later
// session never observes data fetched for a previous one.
type CacheClearer interface {
	Clear()
}

// Config holds lifecycle configuration.
type Config struct {
	// RecheckInterval is the period of StartRecheck. Default: 5 minutes.
	RecheckInterval time.Duration
	// Clock is the time source for expiry checks. Default: wall clock.
	Clock cache.Clock
	// Logger receives transition and verification logs. Default: slog.Default().
	Logger *slog.Logger
}

// Lifecycle decides whether the stored token is usable and drives the
// Unauthenticated -> Authenticated -> Expired -> Unauthenticated state machine.
// There is no silent refresh: leaving Authenticated always requires a new login.
type Lifecycle struct {
	store    TokenStore
	cache    CacheClearer
	verifier Verifier
	clock    cache.Clock
	logger   *slog.Logger
	interval time.Duration

	mu        sync.RWMutex
	state     State
	user      *User
	listeners []func(from, to State)

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	started  bool
}

// NewLifecycle creates a Lifecycle in the Unauthenticated state. Call Bootstrap
// to pick up a stored session.
func NewLifecycle(store TokenStore, clearer CacheClearer, cfg Config) *Lifecycle {
	l := &Lifecycle{
		store:    store,
		cache:    clearer,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		interval: cfg.RecheckInterval,
		state:    StateUnauthenticated,
		stopChan: make(chan struct{}),
	}
	if l.clock == nil {
		l.clock = cache.SystemClock{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.interval <= 0 {
		l.interval = DefaultRecheckInterval
	}
	return l
}

// SetVerifier installs the server verification used by Bootstrap and the
// periodic re-check. The verifier usually depends on the gateway, which in turn
// depends on the Lifecycle for its token, so it is wired after construction.
func (l *Lifecycle) SetVerifier(v Verifier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verifier = v
}

// OnChange registers a listener called after every state transition.
// Listeners run synchronously and must not block.
func (l *Lifecycle) OnChange(fn func(from, to State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Current returns the state and, when authenticated, a copy of the user.
func (l *Lifecycle) Current() (State, *User) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.user == nil {
		return l.state, nil
	}
	u := *l.user
	return l.state, &u
}

// Bootstrap reads the stored session and settles the state.
//
// An expired token is cleared without contacting the server. Otherwise the state
// becomes Authenticated from the stored user record and the session is verified;
// if verification fails the session is dropped and ErrVerificationFailed is
// returned along with StateUnauthenticated.
func (l *Lifecycle) Bootstrap(ctx context.Context) (State, error) {
	tok, err := l.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			l.logger.Warn("failed to read stored session, treating as absent", "error", err)
		}
		l.transition(StateUnauthenticated, nil)
		return StateUnauthenticated, nil
	}

	if tok.IsExpired(l.clock.Now()) {
		l.logger.Info("stored session expired", "user_id", tok.User.ID, "expired_at", tok.ExpiresAt)
		if err := l.expire(ctx); err != nil {
			return StateUnauthenticated, err
		}
		return StateUnauthenticated, nil
	}

	user := tok.User
	l.transition(StateAuthenticated, &user)

	if err := l.verify(ctx); err != nil {
		return StateUnauthenticated, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return StateAuthenticated, nil
}

// CompleteLogin stores the token produced by any successful auth flow and moves
// to Authenticated. If a different user was signed in, cached data is dropped.
func (l *Lifecycle) CompleteLogin(ctx context.Context, tok Token) error {
	if err := tok.Validate(l.clock.Now()); err != nil {
		return fmt.Errorf("invalid session token: %w", err)
	}

	_, prev := l.Current()
	if err := l.store.Save(ctx, &tok); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if prev != nil && prev.ID != tok.User.ID && l.cache != nil {
		l.cache.Clear()
	}

	user := tok.User
	l.transition(StateAuthenticated, &user)
	l.logger.Info("session started", "user_id", tok.User.ID, "expires_at", tok.ExpiresAt)
	return nil
}

// Logout clears the stored session and every cached response.
func (l *Lifecycle) Logout(ctx context.Context) error {
	err := l.teardown(ctx)
	l.transition(StateUnauthenticated, nil)
	if err != nil {
		return err
	}
	l.logger.Info("session ended")
	return nil
}

// Token returns the bearer token to attach to outbound requests.
// It returns "" with a nil error when no session is stored. When the stored
// token has expired the session is torn down locally and ErrSessionExpired is
// returned, so an expired token is never presented to the backend.
func (l *Lifecycle) Token(ctx context.Context) (string, error) {
	tok, err := l.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			l.logger.Warn("failed to read stored session, sending unauthenticated", "error", err)
		}
		l.settleAbsent()
		return "", nil
	}
	if tok.IsExpired(l.clock.Now()) {
		if err := l.expire(ctx); err != nil {
			l.logger.Warn("failed to clear expired session", "error", err)
		}
		return "", ErrSessionExpired
	}
	return tok.Value, nil
}

// StartRecheck starts the background goroutine that re-verifies the session every
// RecheckInterval while authenticated. Call Stop to end it. Calling it more than
// once has no effect.
func (l *Lifecycle) StartRecheck(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stopChan:
				return
			case <-ticker.C:
				l.Recheck(ctx)
			}
		}
	}()
}

// Stop stops the re-check goroutine and waits for it to exit.
// Safe to call multiple times.
func (l *Lifecycle) Stop() {
	l.once.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
}

// Recheck runs one re-verification pass. It is a no-op unless authenticated.
func (l *Lifecycle) Recheck(ctx context.Context) {
	if state, _ := l.Current(); state != StateAuthenticated {
		return
	}

	tok, err := l.store.Load(ctx)
	if err != nil {
		l.logger.Info("stored session disappeared", "error", err)
		if err := l.Logout(ctx); err != nil {
			l.logger.Warn("logout after missing session failed", "error", err)
		}
		return
	}
	if tok.IsExpired(l.clock.Now()) {
		if err := l.expire(ctx); err != nil {
			l.logger.Warn("failed to clear expired session", "error", err)
		}
		return
	}
	_ = l.verify(ctx)
}

// verify asks the server to confirm the session. On failure the session is
// dropped. On success a changed user record is written back to the store.
func (l *Lifecycle) verify(ctx context.Context) error {
	l.mu.RLock()
	v := l.verifier
	l.mu.RUnlock()
	if v == nil {
		return nil
	}

	user, err := v.Verify(ctx)
	if err != nil {
		l.logger.Warn("session verification failed, logging out", "error", err)
		if lerr := l.Logout(ctx); lerr != nil {
			l.logger.Warn("logout after failed verification failed", "error", lerr)
		}
		return err
	}
	if user == nil {
		return nil
	}

	_, current := l.Current()
	if current != nil && *current == *user {
		return nil
	}
	tok, err := l.store.Load(ctx)
	if err != nil {
		return nil
	}
	tok.User = *user
	if err := l.store.Save(ctx, tok); err != nil {
		l.logger.Warn("failed to refresh stored user record", "error", err)
		return nil
	}
	u := *user
	l.mu.Lock()
	if l.state == StateAuthenticated {
		l.user = &u
	}
	l.mu.Unlock()
	return nil
}

// expire reports the Expired transition and tears the session down.
func (l *Lifecycle) expire(ctx context.Context) error {
	l.transition(StateExpired, nil)
	err := l.teardown(ctx)
	l.transition(StateUnauthenticated, nil)
	return err
}

func (l *Lifecycle) teardown(ctx context.Context) error {
	err := l.store.Clear(ctx)
	if l.cache != nil {
		l.cache.Clear()
	}
	if err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	return nil
}

// settleAbsent moves to Unauthenticated when the store no longer holds a session.
func (l *Lifecycle) settleAbsent() {
	if state, _ := l.Current(); state == StateAuthenticated {
		if l.cache != nil {
			l.cache.Clear()
		}
		l.transition(StateUnauthenticated, nil)
	}
}

func (l *Lifecycle) transition(to State, user *User) {
	l.mu.Lock()
	from := l.state
	l.state = to
	l.user = user
	listeners := make([]func(from, to State), len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	if from == to {
		return
	}
	l.logger.Debug("session state changed", "from", from.String(), "to", to.String())
	for _, fn := range listeners {
		fn(from, to)
	}
}
