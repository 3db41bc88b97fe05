package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"kommand-console/internal/domain"
	"kommand-console/internal/middleware"
	"kommand-console/internal/repository"
	"kommand-console/internal/transport"

	"go.uber.org/zap"
)

const (
	loginFailed        = "Login failed"
	registrationFailed = "Registration failed"
	connectionError    = "Connection error"
)

// AuthError is shown inline on the login prompt
type AuthError struct {
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	return e.Detail
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// SessionService defines the interface for signing in and out of the console
type SessionService interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, req transport.RegisterRequest) (*domain.Session, error)
	Restore(ctx context.Context) (*domain.Session, error)
	Logout(ctx context.Context) error
	Current() *domain.Session
	Token() string
}

type sessionService struct {
	api    AuthAPI
	repo   repository.SessionRepository
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *domain.Session
}

// SessionOption configures a SessionService
type SessionOption func(*sessionService)

// WithSessionClock overrides the clock used to check token expiry
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *sessionService) {
		s.now = now
	}
}

// NewSessionService creates a new instance of SessionService
func NewSessionService(api AuthAPI, repo repository.SessionRepository, logger *zap.Logger, opts ...SessionOption) SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &sessionService{
		api:    api,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates and persists the session before making it current
func (s *sessionService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	req := transport.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := middleware.ValidateRequest(req); err != nil {
		return nil, &AuthError{Detail: err.Error(), Err: err}
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		s.logger.Warn("Login rejected", zap.String("email", req.Email), zap.Error(err))
		return nil, authError(err, loginFailed)
	}

	session := resp.User
	if resp.AccessToken != "" {
		session.AccessToken = resp.AccessToken
	}
	return s.establish(ctx, &session, loginFailed)
}

// Register creates an account and signs in with it
func (s *sessionService) Register(ctx context.Context, req transport.RegisterRequest) (*domain.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := middleware.ValidateRequest(req); err != nil {
		return nil, &AuthError{Detail: err.Error(), Err: err}
	}

	session, err := s.api.Register(ctx, req)
	if err != nil {
		s.logger.Warn("Registration rejected", zap.String("email", req.Email), zap.Error(err))
		return nil, authError(err, registrationFailed)
	}
	return s.establish(ctx, session, registrationFailed)
}

func (s *sessionService) establish(ctx context.Context, session *domain.Session, fallback string) (*domain.Session, error) {
	if err := session.Validate(); err != nil {
		return nil, &AuthError{Detail: fallback, Err: err}
	}

	if err := s.repo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	s.logger.Info("Signed in",
		zap.Int64("user_id", session.UserID),
		zap.String("role", string(session.Role)),
	)
	return session, nil
}

// Restore resumes the persisted session, discarding records that can no longer be used
func (s *sessionService) Restore(ctx context.Context) (*domain.Session, error) {
	session, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return nil, nil
	case errors.Is(err, repository.ErrCorruptSession):
		s.logger.Warn("Discarding unreadable session", zap.Error(err))
		return nil, s.discard(ctx)
	case err != nil:
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	if err := session.Validate(); err != nil {
		s.logger.Warn("Discarding invalid session", zap.Error(err))
		return nil, s.discard(ctx)
	}

	if middleware.TokenExpired(session.AccessToken, s.now()) {
		s.logger.Info("Discarding session with expired token", zap.Int64("user_id", session.UserID))
		return nil, s.discard(ctx)
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
	return session, nil
}

func (s *sessionService) discard(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("failed to discard session: %w", err)
	}
	return nil
}

// Logout clears the persisted and in-memory session
func (s *sessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Current returns the signed-in session, or nil
func (s *sessionService) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the bearer token of the current session, or ""
func (s *sessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

func authError(err error, fallback string) *AuthError {
	if transport.IsNetworkError(err) {
		return &AuthError{Detail: connectionError, Err: err}
	}
	return &AuthError{Detail: transport.DetailOr(err, fallback), Err: err}
}
