// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RegistrationInput carries the fields of a registration form submission.
type RegistrationInput struct {
	FirstNames      string
	LastNames       string
	NationalID      string
	Institution     string
	Canton          string
	Email           string
	RecoveryEmail   string // optional
	Username        string
	Password        string
	ConfirmPassword string
	Role            Role
}

// requiredFields lists required input fields in the order they are
// reported missing. The first empty one wins.
var requiredFields = []struct {
	name  string
	value func(*RegistrationInput) string
}{
	{"first_names", func(in *RegistrationInput) string { return in.FirstNames }},
	{"last_names", func(in *RegistrationInput) string { return in.LastNames }},
	{"national_id", func(in *RegistrationInput) string { return in.NationalID }},
	{"institution", func(in *RegistrationInput) string { return in.Institution }},
	{"canton", func(in *RegistrationInput) string { return in.Canton }},
	{"email", func(in *RegistrationInput) string { return in.Email }},
	{"username", func(in *RegistrationInput) string { return in.Username }},
	{"password", func(in *RegistrationInput) string { return in.Password }},
}

// RegistrationService validates and admits new accounts.
type RegistrationService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(accounts AccountRepository, hasher PasswordHasher) (*RegistrationService, error) {
	return NewRegistrationServiceWithLogger(accounts, hasher, slog.Default())
}

// NewRegistrationServiceWithLogger creates a RegistrationService with a custom logger.
func NewRegistrationServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*RegistrationService, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &RegistrationService{accounts: accounts, hasher: hasher, logger: logger}, nil
}

// Register validates the input and creates a new account.
//
// Checks run in a fixed order. The administrator-exists check comes first
// and short-circuits everything else: a duplicate admin attempt must fail
// fast without leaking any other validation detail. The database's partial
// unique index backs the check, so two racing admin registrations cannot
// both succeed; the loser surfaces the same ADMIN_ALREADY_EXISTS error
// from Create.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*Account, error) {
	input.normalize()

	role := input.Role
	if role == "" {
		role = RoleGuest
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").
			With("role", string(role)).
			Errorf("unknown role %q", string(role))
	}

	if role == RoleAdministrator {
		exists, err := s.accounts.ExistsAdmin(ctx)
		if err != nil {
			return nil, oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "check administrator exists").
				Wrap(err)
		}
		if exists {
			return nil, oops.Code("ADMIN_ALREADY_EXISTS").
				Wrap(ErrAdminExists)
		}
	}

	if input.Password != input.ConfirmPassword {
		return nil, oops.Code("AUTH_PASSWORD_MISMATCH").
			Errorf("password and confirmation do not match")
	}

	for _, f := range requiredFields {
		if f.value(&input) == "" {
			return nil, oops.Code("AUTH_MISSING_FIELD").
				With("field", f.name).
				Errorf("required field %s is missing", f.name)
		}
	}

	if !ValidCanton(input.Canton) {
		return nil, oops.Code("AUTH_INVALID_CANTON").
			With("canton", input.Canton).
			Errorf("canton %q is not in the allowed list", input.Canton)
	}

	if err := ValidateUsername(input.Username); err != nil {
		return nil, err
	}
	if err := ValidateNationalID(input.NationalID); err != nil {
		return nil, err
	}

	conflict, err := s.accounts.FindConflict(ctx, input.Username, input.Email, input.NationalID)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check uniqueness").
			Wrap(err)
	}
	if conflictErr := conflict.Err(); conflictErr != nil {
		return nil, wrapConflict(conflictErr)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := time.Now()
	var recovery *string
	if input.RecoveryEmail != "" {
		recovery = &input.RecoveryEmail
	}
	account := &Account{
		ID:            ulid.Make(),
		FirstNames:    input.FirstNames,
		LastNames:     input.LastNames,
		NationalID:    input.NationalID,
		Institution:   input.Institution,
		Canton:        input.Canton,
		Email:         input.Email,
		RecoveryEmail: recovery,
		Username:      input.Username,
		PasswordHash:  passwordHash,
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		// A conflict found at insert time (including a lost admin race)
		// surfaces identically to one found by the pre-insert check.
		switch {
		case isConflict(err):
			return nil, wrapConflict(err)
		case isAdminExists(err):
			return nil, oops.Code("ADMIN_ALREADY_EXISTS").Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert account").
			With("username", input.Username).
			Wrap(err)
	}

	s.logger.Info("account registered",
		"account_id", account.ID.String(),
		"username", account.Username,
		"role", string(account.Role))

	return account, nil
}

// normalize trims surrounding whitespace from every text field. Passwords
// are taken verbatim.
func (in *RegistrationInput) normalize() {
	in.FirstNames = strings.TrimSpace(in.FirstNames)
	in.LastNames = strings.TrimSpace(in.LastNames)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Institution = strings.TrimSpace(in.Institution)
	in.Canton = strings.TrimSpace(in.Canton)
	in.Email = strings.TrimSpace(in.Email)
	in.RecoveryEmail = strings.TrimSpace(in.RecoveryEmail)
	in.Username = strings.TrimSpace(in.Username)
}
