package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/internal/metrics"
	"github.com/layer-3/authflow/ports"
	"golang.org/x/crypto/bcrypt"
)

// Default lifetimes, matching the reference server
const (
	DefaultAccessTTL  = time.Minute
	DefaultRefreshTTL = time.Hour
)

// AuthServiceOption tunes an AuthService
type AuthServiceOption func(*AuthService)

// WithTTLs overrides the access and refresh token lifetimes
func WithTTLs(access, refresh time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		s.accessTTL = access
		s.refreshTTL = refresh
	}
}

// WithBcryptCost sets the password hashing cost; tests use bcrypt.MinCost
func WithBcryptCost(cost int) AuthServiceOption {
	return func(s *AuthService) {
		s.bcryptCost = cost
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.logger = logger
	}
}

// AuthService handles authentication business logic
type AuthService struct {
	tokenizer ports.Tokenizer
	store     ports.Store
	users     ports.UserStore
	eventPub  ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tokenizer ports.Tokenizer,
	store ports.Store,
	users ports.UserStore,
	eventPub ports.EventPublisher,
	opts ...AuthServiceOption,
) *AuthService {
	s := &AuthService{
		tokenizer:  tokenizer,
		store:      store,
		users:      users,
		eventPub:   eventPub,
		logger:     slog.Default(),
		now:        time.Now,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// Register creates a new account
func (s *AuthService) Register(ctx context.Context, username, password string) (err error) {
	defer func(start time.Time) { metrics.RecordOperation("register", start, err) }(time.Now())

	if username == "" || password == "" {
		return core.ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &core.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrUserExists) {
			return core.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "username", username)
	s.publish(ctx, core.EventRegistered, username, "")
	return nil
}

// Login checks the password and issues an access/refresh token pair
func (s *AuthService) Login(ctx context.Context, username, password string) (access string, refresh string, err error) {
	defer func(start time.Time) { metrics.RecordOperation("login", start, err) }(time.Now())

	if username == "" || password == "" {
		return "", "", core.ErrMissingCredentials
	}

	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return "", "", core.ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", "", core.ErrInvalidCredentials
	}

	now := s.now()
	grant := &core.Grant{
		ID:            uuid.New().String(),
		Subject:       user.Username,
		IssuedAt:      now,
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshExpiry: now.Add(s.refreshTTL),
		RefreshID:     uuid.New().String(),
	}

	access, err = s.tokenizer.GrantToAccessToken(grant)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}

	refresh, err = s.tokenizer.GrantToRefreshToken(grant)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}

	s.logger.Info("user logged in", "username", username, "refresh_id", grant.RefreshID)
	s.publish(ctx, core.EventLogin, username, grant.RefreshID)
	return access, refresh, nil
}

// Refresh issues a new access token bound to the same refresh token.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (access string, err error) {
	defer func(start time.Time) { metrics.RecordOperation("refresh", start, err) }(time.Now())

	grant, err := s.tokenizer.RefreshTokenToGrant(refreshTokenStr)
	if err != nil {
		return "", err
	}

	if s.now().After(grant.RefreshExpiry) {
		return "", core.ErrTokenExpired
	}

	invalidated, err := s.store.IsTokenInvalidated(ctx, grant.RefreshID)
	if err != nil {
		return "", fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return "", core.ErrTokenInvalidated
	}

	now := s.now()
	accessExpiry := now.Add(s.accessTTL)
	// an access token never outlives the refresh token it came from
	if accessExpiry.After(grant.RefreshExpiry) {
		accessExpiry = grant.RefreshExpiry
	}
	newGrant := &core.Grant{
		ID:            uuid.New().String(),
		Subject:       grant.Subject,
		IssuedAt:      now,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: grant.RefreshExpiry,
		RefreshID:     grant.RefreshID,
	}

	access, err = s.tokenizer.GrantToAccessToken(newGrant)
	if err != nil {
		return "", fmt.Errorf("failed to create new access token: %w", err)
	}

	s.logger.Debug("access token refreshed", "username", grant.Subject, "refresh_id", grant.RefreshID)
	s.publish(ctx, core.EventRefresh, grant.Subject, grant.RefreshID)
	return access, nil
}

// Logout invalidates a refresh token and every access token issued from it
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) (err error) {
	defer func(start time.Time) { metrics.RecordOperation("logout", start, err) }(time.Now())

	grant, err := s.tokenizer.RefreshTokenToGrant(refreshTokenStr)
	if err != nil && !errors.Is(err, core.ErrTokenExpired) {
		return err
	}

	// expired tokens are still recorded so they can't be replayed under clock skew
	remainingTime := grant.RefreshExpiry.Sub(s.now())
	if remainingTime <= 0 {
		remainingTime = time.Hour
	}

	if err := s.store.InvalidateToken(ctx, grant.RefreshID, remainingTime); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	s.logger.Info("user logged out", "username", grant.Subject, "refresh_id", grant.RefreshID)
	s.publish(ctx, core.EventLogout, grant.Subject, grant.RefreshID)
	return nil
}

// ValidateAccessToken returns the grant behind a live access token
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (grant *core.Grant, err error) {
	defer func(start time.Time) { metrics.RecordOperation("validate", start, err) }(time.Now())

	grant, err = s.tokenizer.AccessTokenToGrant(accessToken)
	if err != nil {
		return nil, err
	}

	if s.now().After(grant.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	// access tokens die with the refresh token they were issued under
	if grant.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, grant.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return grant, nil
}

// publish emits an event; failures are logged and never fail the operation
func (s *AuthService) publish(ctx context.Context, eventType core.AuthEventType, subject, tokenID string) {
	if s.eventPub == nil {
		return
	}
	event := core.AuthEvent{
		Type:    eventType,
		Subject: subject,
		TokenID: tokenID,
		At:      s.now(),
	}
	if err := s.eventPub.PublishAuthEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish auth event", "type", eventType, "error", err)
	}
}
