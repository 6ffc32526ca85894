package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/ctxkey"
	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

// DefaultTokenTTL is the session lifetime assumed when the server does not say.
const DefaultTokenTTL = 24 * time.Hour

// SessionManager receives the outcome of auth flows. *session.Lifecycle implements it.
type SessionManager interface {
	CompleteLogin(ctx context.Context, tok session.Token) error
	Logout(ctx context.Context) error
}

// AuthConfig configures an AuthService.
type AuthConfig struct {
	// DefaultTokenTTL applies when an auth response carries no expiresAt.
	DefaultTokenTTL time.Duration
	Clock           cache.Clock
	Logger          *slog.Logger
}

// AuthService runs the login, registration and recovery flows. Every flow that
// yields a token hands it to the SessionManager.
type AuthService struct {
	gw       Gateway
	sessions SessionManager
	ttl      time.Duration
	clock    cache.Clock
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(gw Gateway, sessions SessionManager, cfg AuthConfig) *AuthService {
	s := &AuthService{
		gw:       gw,
		sessions: sessions,
		ttl:      cfg.DefaultTokenTTL,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.clock == nil {
		s.clock = cache.SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// wireUser is the user record as sent by the backend.
type wireUser struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name"`
	Email   string `json:"email" validate:"omitempty,email"`
	Picture string `json:"picture,omitempty"`
}

func (u wireUser) toUser() session.User {
	return session.User{ID: u.ID, Name: u.Name, Email: u.Email, Picture: u.Picture}
}

// authPayload is the body of every token-producing auth response.
type authPayload struct {
	Token     string     `json:"token"`
	User      wireUser   `json:"user" validate:"required"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// LoginInput holds the input for password login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login signs in with email and password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*session.User, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.signIn(ctx, gateway.Call{Endpoint: gateway.AuthLogin, Body: in})
}

// RegisterInput holds the input for account registration.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterResult reports whether registration also opened a session. When the
// backend requires email verification first, SignedIn is false.
type RegisterResult struct {
	User     session.User
	SignedIn bool
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	ep := gateway.AuthRegister
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep, Body: in})
	if err != nil {
		return nil, err
	}
	var payload authPayload
	if err := decode(ctx, s.logger, ep, resp, &payload); err != nil {
		return nil, err
	}
	if payload.Token == "" {
		return &RegisterResult{User: payload.User.toUser()}, nil
	}
	if err := s.complete(ctx, payload); err != nil {
		return nil, err
	}
	return &RegisterResult{User: payload.User.toUser(), SignedIn: true}, nil
}

// OAuthCallbackInput holds the parameters returned by the identity provider.
type OAuthCallbackInput struct {
	Provider string `json:"-" validate:"required,oneof=google github reddit"`
	Code     string `json:"code" validate:"required"`
	State    string `json:"state,omitempty"`
}

// OAuthCallback completes an OAuth sign-in.
func (s *AuthService) OAuthCallback(ctx context.Context, in OAuthCallbackInput) (*session.User, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.signIn(ctx, gateway.Call{
		Endpoint: gateway.AuthOAuthCallback,
		Params:   map[string]string{gateway.ParamProvider: in.Provider},
		Body:     in,
	})
}

type verifyEmailInput struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmail confirms an email address and signs in.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*session.User, error) {
	in := verifyEmailInput{Token: token}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.signIn(ctx, gateway.Call{Endpoint: gateway.AuthVerifyEmail, Body: in})
}

// ResetPasswordInput holds a reset token and the new password.
type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"password" validate:"required,min=8"`
}

// ResetPassword sets a new password and signs in.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) (*session.User, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.signIn(ctx, gateway.Call{Endpoint: gateway.AuthResetPassword, Body: in})
}

type forgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset asks the backend to email a reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	in := forgotPasswordInput{Email: email}
	if err := checkInput(in); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, gateway.Call{Endpoint: gateway.AuthForgotPassword, Body: in})
	return err
}

// Me returns the signed-in user as the server sees it.
func (s *AuthService) Me(ctx context.Context) (*session.User, error) {
	ep := gateway.AuthMe
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep})
	if err != nil {
		return nil, err
	}
	var u wireUser
	if err := decode(ctx, s.logger, ep, resp, &u); err != nil {
		return nil, err
	}
	user := u.toUser()
	return &user, nil
}

// Verify implements session.Verifier.
func (s *AuthService) Verify(ctx context.Context) (*session.User, error) {
	return s.Me(ctx)
}

// Logout tells the backend the session is over, then clears it locally. The
// backend call is best effort: local state is cleared whatever its outcome.
func (s *AuthService) Logout(ctx context.Context) error {
	if _, err := s.gw.Do(ctx, gateway.Call{Endpoint: gateway.AuthLogout}); err != nil {
		ctxkey.Logger(ctx, s.logger).Debug("server logout failed", "error", err)
	}
	return s.sessions.Logout(ctx)
}

// signIn runs a token-producing flow.
func (s *AuthService) signIn(ctx context.Context, call gateway.Call) (*session.User, error) {
	resp, err := s.gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	var payload authPayload
	if err := decode(ctx, s.logger, call.Endpoint, resp, &payload); err != nil {
		return nil, err
	}
	if payload.Token == "" {
		return nil, &gateway.RequestError{
			Status:  resp.Status,
			Message: gateway.InvalidResponseMessage,
			Body:    resp.Data,
		}
	}
	if err := s.complete(ctx, payload); err != nil {
		return nil, err
	}
	user := payload.User.toUser()
	return &user, nil
}

func (s *AuthService) complete(ctx context.Context, payload authPayload) error {
	expiresAt := s.clock.Now().Add(s.ttl)
	if payload.ExpiresAt != nil && !payload.ExpiresAt.IsZero() {
		expiresAt = *payload.ExpiresAt
	}
	tok := session.Token{
		Value:     payload.Token,
		User:      payload.User.toUser(),
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.CompleteLogin(ctx, tok); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

var _ session.Verifier = (*AuthService)(nil)
