// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

// Package auth implements credential verification, browser session
// lifecycle and JWT issuance for the parley console.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/pkg/crypto"
	"github.com/parleyhq/parley/internal/pkg/logger"
	redisrepo "github.com/parleyhq/parley/internal/repository/redis"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("user account is locked")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrUserPending        = errors.New("user account is awaiting approval")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrWeakPassword       = errors.New("password does not meet requirements")
)

// Config contains configuration for the auth service.
type Config struct {
	// MaxLoginAttempts before account lockout (0 = unlimited)
	MaxLoginAttempts int

	// LockoutDuration is how long an account stays locked
	LockoutDuration time.Duration

	// PasswordMinLength minimum password length
	PasswordMinLength int
}

// DefaultConfig returns default auth configuration.
func DefaultConfig() Config {
	return Config{
		MaxLoginAttempts:  5,
		LockoutDuration:   15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// UserStore is the user persistence surface the service needs, satisfied by
// postgres.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	IncrementFailedAttempts(ctx context.Context, id uuid.UUID, maxAttempts int, lockDuration time.Duration) error
	ResetFailedAttempts(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// SessionStore is the browser session surface the service needs, satisfied
// by the Redis session store.
type SessionStore interface {
	Create(ctx context.Context, userID, username, role, userAgent, ip string) (*redisrepo.Session, error)
	Get(ctx context.Context, sessionID string) (*redisrepo.Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// Blacklist is the token revocation surface, satisfied by redis.JWTBlacklist.
type Blacklist interface {
	BlacklistToken(ctx context.Context, jti string, expiresAt time.Time, reason string) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Service is the authentication service.
type Service struct {
	users     UserStore
	sessions  SessionStore
	blacklist Blacklist
	jwt       *JWTService
	config    Config
	log       *logger.Logger
}

// NewService creates the auth service. The blacklist is optional; without
// it logout relies on session deletion alone.
func NewService(users UserStore, sessions SessionStore, jwtSvc *JWTService, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		jwt:      jwtSvc,
		config:   cfg,
		log:      log.Named("auth"),
	}
}

// SetBlacklist wires the optional JWT revocation list.
func (s *Service) SetBlacklist(bl Blacklist) {
	s.blacklist = bl
}

// LoginInput carries a login attempt.
type LoginInput struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult is a successful login: the user, the browser session and the
// API token pair.
type LoginResult struct {
	User    *models.User
	Session *redisrepo.Session
	Tokens  *TokenPair
}

// VerifyCredentials checks a username/password pair and maintains the
// failed-attempt counters. It never reveals whether the username exists.
func (s *Service) VerifyCredentials(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		s.log.Warn("login attempt for unknown user",
			"username", input.Username,
			"ip", input.IPAddress,
		)
		// Burn a bcrypt comparison so unknown usernames cost the same as
		// wrong passwords.
		_ = crypto.CheckPassword(input.Password, "$2a$12$dummy.hash.to.prevent.timing.attacks")
		return nil, ErrInvalidCredentials
	}

	// Always run bcrypt first to prevent timing-based enumeration of
	// account status.
	passwordValid := crypto.CheckPassword(input.Password, user.PasswordHash)

	if !user.IsActive {
		s.log.Warn("login attempt on disabled account", "username", user.Username, "ip", input.IPAddress)
		return nil, ErrUserDisabled
	}
	if user.Role == models.RolePending {
		s.log.Warn("login attempt on pending account", "username", user.Username, "ip", input.IPAddress)
		return nil, ErrUserPending
	}
	if user.IsLocked() {
		s.log.Warn("login attempt on locked account", "username", user.Username, "ip", input.IPAddress)
		return nil, ErrUserLocked
	}

	if !passwordValid {
		if s.config.MaxLoginAttempts > 0 {
			if err := s.users.IncrementFailedAttempts(ctx, user.ID,
				s.config.MaxLoginAttempts, s.config.LockoutDuration); err != nil {
				s.log.Error("failed to increment login attempts", "error", err)
			}
		}
		s.log.Warn("invalid password", "username", user.Username, "ip", input.IPAddress)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login verifies credentials, creates the browser session and issues the
// token pair.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.VerifyCredentials(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.users.ResetFailedAttempts(ctx, user.ID); err != nil {
		s.log.Error("failed to reset login attempts", "error", err)
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Error("failed to update last login", "error", err)
	}

	session, err := s.sessions.Create(ctx, user.ID.String(), user.Username,
		string(user.Role), input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	tokens, err := s.jwt.GenerateTokenPair(user, session.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", "username", user.Username, "session", session.ID)
	return &LoginResult{User: user, Session: session, Tokens: tokens}, nil
}

// Logout destroys a browser session and, when an access token is supplied
// and a blacklist is wired, revokes the token until its natural expiry.
func (s *Service) Logout(ctx context.Context, sessionID, accessToken string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	if accessToken != "" && s.blacklist != nil {
		jti, err := s.jwt.GetTokenID(accessToken)
		if err != nil {
			s.log.Debug("logout with unparseable token", "error", err)
			return nil
		}
		exp, err := s.jwt.GetExpirationTime(accessToken)
		if err != nil {
			return nil
		}
		if err := s.blacklist.BlacklistToken(ctx, jti, exp, "logout"); err != nil {
			s.log.Error("failed to blacklist token on logout", "error", err)
		}
	}
	return nil
}

// LogoutAll destroys every session of a user (password change, admin action).
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.DeleteAllForUser(ctx, userID.String())
}

// ValidateSession loads a live browser session.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (*redisrepo.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// ValidateAccessToken validates a bearer token, including the revocation
// list when one is wired.
func (s *Service) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// ChangePassword verifies the current password and stores a new hash, then
// logs out all other sessions.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, input models.ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !crypto.CheckPassword(input.CurrentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if len(input.NewPassword) < s.config.PasswordMinLength {
		return ErrWeakPassword
	}

	hash, err := crypto.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		s.log.Error("failed to revoke sessions after password change", "error", err)
	}
	s.log.Info("password changed", "username", user.Username)
	return nil
}
