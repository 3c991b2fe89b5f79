// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role identifies the privilege level of an account.
type Role string

// The two roles the portal knows about. At most one account may ever hold
// RoleAdministrator; everyone else is a guest.
const (
	RoleAdministrator Role = "administrator"
	RoleGuest         Role = "guest"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleGuest
}

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// NationalIDLength is the fixed length of a national identity number.
const NationalIDLength = 10

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// nationalIDRegex matches a 10-digit identity number.
var nationalIDRegex = regexp.MustCompile(`^[0-9]{10}$`)

// Account represents a registered member of the federation portal.
type Account struct {
	ID             ulid.ULID
	FirstNames     string
	LastNames      string
	NationalID     string
	Institution    string
	Canton         string
	Email          string
	RecoveryEmail  *string
	Username       string
	PasswordHash   string
	Role           Role
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName returns the name shown on the landing page and stored in
// sessions. Never includes credential material.
func (a *Account) DisplayName() string {
	return strings.TrimSpace(a.FirstNames + " " + a.LastNames)
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked() bool {
	return IsLockedOut(a.LockedUntil)
}

// RecordFailure increments the failure counter and sets lockout if the
// threshold is reached.
func (a *Account) RecordFailure() {
	a.FailedAttempts++
	a.LockedUntil = ComputeLockoutTime(a.FailedAttempts)
	a.UpdatedAt = time.Now()
}

// RecordSuccess resets failure counter and lockout.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now()
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateNationalID validates a national identity number.
// The number is exactly NationalIDLength digits.
func ValidateNationalID(nationalID string) error {
	if !nationalIDRegex.MatchString(nationalID) {
		return oops.Code("AUTH_INVALID_NATIONAL_ID").
			With("length", NationalIDLength).
			Errorf("national identity number must be exactly %d digits", NationalIDLength)
	}
	return nil
}

// Conflict identifies which unique field an existing account collides on.
type Conflict int

// Conflict kinds reported by AccountRepository.FindConflict.
const (
	ConflictNone Conflict = iota
	ConflictUsername
	ConflictEmail
	ConflictNationalID
)

// Err maps a conflict kind to its sentinel error, or nil for ConflictNone.
func (c Conflict) Err() error {
	switch c {
	case ConflictUsername:
		return ErrDuplicateUsername
	case ConflictEmail:
		return ErrDuplicateEmail
	case ConflictNationalID:
		return ErrDuplicateNationalID
	default:
		return nil
	}
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account atomically. Uniqueness violations are
	// reported as the matching ErrDuplicate* sentinel; a violation of the
	// single-administrator constraint is reported as ErrAdminExists. No
	// partial write survives a failed Create.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// ExistsAdmin reports whether an Administrator account exists.
	ExistsAdmin(ctx context.Context) (bool, error)

	// FindConflict reports which of the three unique fields, if any, is
	// already registered. Username takes precedence over email, email
	// over national id, so callers get a single actionable answer.
	FindConflict(ctx context.Context, username, email, nationalID string) (Conflict, error)

	// Update updates an existing account. Only login failure bookkeeping
	// goes through here; registered fields are immutable.
	Update(ctx context.Context, account *Account) error
}
