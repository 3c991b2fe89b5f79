// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/fedeportal/fedeportal/internal/auth"
)

// Unique constraint names from the accounts migration. Create maps
// violations back to domain sentinels by these names.
const (
	constraintUsername    = "accounts_username_key"
	constraintEmail       = "accounts_email_key"
	constraintNationalID  = "accounts_national_id_key"
	constraintSingleAdmin = "accounts_single_admin"
)

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account. A single INSERT, so either every field
// persists or none does; constraint violations map to the matching
// sentinel. The accounts_single_admin partial index makes the
// single-administrator invariant hold even when two registrations race.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, first_names, last_names, national_id, institution,
			canton, email, recovery_email, username, password_hash,
			role, failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		account.ID.String(),
		account.FirstNames,
		account.LastNames,
		account.NationalID,
		account.Institution,
		account.Canton,
		account.Email,
		account.RecoveryEmail,
		account.Username,
		account.PasswordHash,
		string(account.Role),
		account.FailedAttempts,
		account.LockedUntil,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if sentinel := uniqueViolationSentinel(err); sentinel != nil {
			return oops.Code("ACCOUNT_CONFLICT").
				With("username", account.Username).
				Wrap(sentinel)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return nil
}

// uniqueViolationSentinel translates a unique constraint violation into the
// corresponding domain sentinel, or nil for any other error.
func uniqueViolationSentinel(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case constraintUsername:
		return auth.ErrDuplicateUsername
	case constraintEmail:
		return auth.ErrDuplicateEmail
	case constraintNationalID:
		return auth.ErrDuplicateNationalID
	case constraintSingleAdmin:
		return auth.ErrAdminExists
	default:
		return nil
	}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_names, last_names, national_id, institution,
		       canton, email, recovery_email, username, password_hash,
		       role, failed_attempts, locked_until, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_names, last_names, national_id, institution,
		       canton, email, recovery_email, username, password_hash,
		       role, failed_attempts, locked_until, created_at, updated_at
		FROM accounts
		WHERE LOWER(username) = LOWER($1)
	`, username)

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").
			With("operation", "get account by username").
			With("username", username).
			Wrap(err)
	}
	return account, nil
}

// ExistsAdmin reports whether an Administrator account exists.
func (r *AccountRepository) ExistsAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE role = $1)
	`, string(auth.RoleAdministrator)).Scan(&exists)
	if err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_ADMIN_FAILED").
			With("operation", "check administrator exists").
			Wrap(err)
	}
	return exists, nil
}

// FindConflict reports which unique field, if any, is already registered.
// Username takes precedence over email, email over national id.
func (r *AccountRepository) FindConflict(ctx context.Context, username, email, nationalID string) (auth.Conflict, error) {
	var usernameTaken, emailTaken, nationalIDTaken bool
	err := r.pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM accounts WHERE LOWER(username) = LOWER($1)),
			EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($2)),
			EXISTS (SELECT 1 FROM accounts WHERE national_id = $3)
	`, username, email, nationalID).Scan(&usernameTaken, &emailTaken, &nationalIDTaken)
	if err != nil {
		return auth.ConflictNone, oops.Code("ACCOUNT_FIND_CONFLICT_FAILED").
			With("operation", "check unique fields").
			Wrap(err)
	}

	switch {
	case usernameTaken:
		return auth.ConflictUsername, nil
	case emailTaken:
		return auth.ConflictEmail, nil
	case nationalIDTaken:
		return auth.ConflictNationalID, nil
	default:
		return auth.ConflictNone, nil
	}
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			password_hash = $2,
			failed_attempts = $3,
			locked_until = $4,
			updated_at = $5
		WHERE id = $1
	`,
		account.ID.String(),
		account.PasswordHash,
		account.FailedAttempts,
		account.LockedUntil,
		account.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *AccountRepository) scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr          string
		firstNames     string
		lastNames      string
		nationalID     string
		institution    string
		canton         string
		email          string
		recoveryEmail  *string
		username       string
		passwordHash   string
		roleStr        string
		failedAttempts int
		lockedUntil    *time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&idStr,
		&firstNames,
		&lastNames,
		&nationalID,
		&institution,
		&canton,
		&email,
		&recoveryEmail,
		&username,
		&passwordHash,
		&roleStr,
		&failedAttempts,
		&lockedUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:             id,
		FirstNames:     firstNames,
		LastNames:      lastNames,
		NationalID:     nationalID,
		Institution:    institution,
		Canton:         canton,
		Email:          email,
		RecoveryEmail:  recoveryEmail,
		Username:       username,
		PasswordHash:   passwordHash,
		Role:           auth.Role(roleStr),
		FailedAttempts: failedAttempts,
		LockedUntil:    lockedUntil,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
