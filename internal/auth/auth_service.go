// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides authentication operations.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewAuthService creates a new Service.
func NewAuthService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(accounts, sessions, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates a Service with a custom logger.
func NewAuthServiceWithLogger(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// dummyPasswordHash is used when an account doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login verifies credentials and creates a session.
// Returns the session, plaintext token, and any error.
//
// Unknown-username and wrong-password attempts fail with the same
// AUTH_INVALID_CREDENTIALS error so usernames cannot be enumerated, and
// verification runs against a dummy hash for unknown users to keep
// response times consistent.
func (s *Service) Login(ctx context.Context, username, password, userAgent, ipAddress string) (*Session, string, error) {
	account, lookupErr := s.accounts.GetByUsername(ctx, username)

	var targetHash string
	var accountExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			targetHash = dummyPasswordHash
			accountExists = false
		} else {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by username").
				Wrap(lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// For dummy hash verification errors, just treat as invalid
		if !accountExists {
			return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		if accountExists {
			// Record failure only for existing accounts
			account.RecordFailure()
			_ = s.accounts.Update(ctx, account) //nolint:errcheck // Best effort
		}
		s.logger.Info("login rejected", "username", username)
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
	}

	// Check lockout AFTER password verification to maintain constant time
	if account.IsLocked() {
		return nil, "", oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", account.LockedUntil).
			Errorf("account is temporarily locked")
	}

	account.RecordSuccess()

	// Check if password needs upgrade (e.g., imported non-argon2id hash)
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		newHash, hashErr := s.hasher.Hash(password)
		if hashErr == nil {
			account.PasswordHash = newHash
		}
	}

	// Ignore errors - login should succeed even if bookkeeping fails
	_ = s.accounts.Update(ctx, account) //nolint:errcheck // Best effort, login succeeds regardless

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	expiresAt := time.Now().Add(SessionTokenExpiry)
	session, err := NewSession(account.ID, account.DisplayName(), tokenHash, userAgent, ipAddress, expiresAt)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	s.logger.Info("login succeeded",
		"account_id", account.ID.String(),
		"session_id", session.ID.String())

	return session, token, nil
}

// Logout invalidates a session.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// ValidateSession validates a session token and returns the session if valid.
// Also updates the LastSeenAt timestamp.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	tokenHash := HashSessionToken(token)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	// Update last seen timestamp (non-blocking, ignore errors)
	now := time.Now()
	_ = s.sessions.UpdateLastSeen(ctx, session.ID, now) //nolint:errcheck // Best effort, validation succeeds regardless

	return session, nil
}

// PurgeExpiredSessions removes expired sessions. Called periodically from
// the serve loop.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	count, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	if count > 0 {
		s.logger.Info("expired sessions purged", "count", count)
	}
	return count, nil
}
