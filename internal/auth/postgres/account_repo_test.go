// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedeportal/fedeportal/internal/auth"
	"github.com/fedeportal/fedeportal/internal/auth/postgres"
)

// accountSeq produces unique usernames, emails, and national ids so tests
// don't trip over each other's rows.
var accountSeq atomic.Int64

func newTestAccount(t *testing.T) *auth.Account {
	t.Helper()
	n := accountSeq.Add(1)
	now := time.Now().UTC().Truncate(time.Microsecond)
	account := &auth.Account{
		ID:           ulid.Make(),
		FirstNames:   "Ana María",
		LastNames:    "Pérez López",
		NationalID:   fmt.Sprintf("18%08d", n),
		Institution:  "Club Deportivo Macará",
		Canton:       "Ambato",
		Email:        fmt.Sprintf("user%d@example.com", n),
		Username:     fmt.Sprintf("user%d", n),
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$salt$hash",
		Role:         auth.RoleGuest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	t.Cleanup(func() {
		_, _ = testPool.Exec(context.Background(), `DELETE FROM accounts WHERE id = $1`, account.ID.String())
	})
	return account
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)

	t.Run("creates new account", func(t *testing.T) {
		account := newTestAccount(t)
		require.NoError(t, repo.Create(ctx, account))

		stored, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, account.ID, stored.ID)
		assert.Equal(t, account.FirstNames, stored.FirstNames)
		assert.Equal(t, account.LastNames, stored.LastNames)
		assert.Equal(t, account.NationalID, stored.NationalID)
		assert.Equal(t, account.Institution, stored.Institution)
		assert.Equal(t, account.Canton, stored.Canton)
		assert.Equal(t, account.Email, stored.Email)
		assert.Nil(t, stored.RecoveryEmail)
		assert.Equal(t, account.Username, stored.Username)
		assert.Equal(t, account.PasswordHash, stored.PasswordHash)
		assert.Equal(t, auth.RoleGuest, stored.Role)
		assert.Equal(t, 0, stored.FailedAttempts)
		assert.Nil(t, stored.LockedUntil)
	})

	t.Run("stores recovery email", func(t *testing.T) {
		recovery := "backup@example.com"
		account := newTestAccount(t)
		account.RecoveryEmail = &recovery
		require.NoError(t, repo.Create(ctx, account))

		stored, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.RecoveryEmail)
		assert.Equal(t, recovery, *stored.RecoveryEmail)
	})

	t.Run("duplicate username maps to sentinel", func(t *testing.T) {
		first := newTestAccount(t)
		require.NoError(t, repo.Create(ctx, first))

		second := newTestAccount(t)
		second.Username = first.Username
		err := repo.Create(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
	})

	t.Run("username uniqueness is case-insensitive", func(t *testing.T) {
		first := newTestAccount(t)
		require.NoError(t, repo.Create(ctx, first))

		second := newTestAccount(t)
		second.Username = "USER" + first.Username[4:]
		err := repo.Create(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
	})

	t.Run("duplicate email maps to sentinel", func(t *testing.T) {
		first := newTestAccount(t)
		require.NoError(t, repo.Create(ctx, first))

		second := newTestAccount(t)
		second.Email = first.Email
		err := repo.Create(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("duplicate national id maps to sentinel", func(t *testing.T) {
		first := newTestAccount(t)
		require.NoError(t, repo.Create(ctx, first))

		second := newTestAccount(t)
		second.NationalID = first.NationalID
		err := repo.Create(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateNationalID)
	})
}

func TestAccountRepository_SingleAdmin(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)

	t.Run("second administrator insert fails", func(t *testing.T) {
		first := newTestAccount(t)
		first.Role = auth.RoleAdministrator
		require.NoError(t, repo.Create(ctx, first))

		second := newTestAccount(t)
		second.Role = auth.RoleAdministrator
		err := repo.Create(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrAdminExists)

		// The loser's row must not exist in any form.
		_, err = repo.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("concurrent administrator inserts admit exactly one", func(t *testing.T) {
		const attempts = 8

		candidates := make([]*auth.Account, attempts)
		for i := range candidates {
			candidates[i] = newTestAccount(t)
			candidates[i].Role = auth.RoleAdministrator
		}

		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Create(ctx, candidates[i])
			}(i)
		}
		wg.Wait()

		var created int
		for _, err := range errs {
			if err == nil {
				created++
			} else {
				assert.ErrorIs(t, err, auth.ErrAdminExists)
			}
		}
		assert.Equal(t, 1, created)

		exists, err := repo.ExistsAdmin(ctx)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)

	t.Run("finds account case-insensitively", func(t *testing.T) {
		account := newTestAccount(t)
		require.NoError(t, repo.Create(ctx, account))

		stored, err := repo.GetByUsername(ctx, "USER"+account.Username[4:])
		require.NoError(t, err)
		assert.Equal(t, account.ID, stored.ID)
	})

	t.Run("unknown username returns not found", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "does_not_exist")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestAccountRepository_ExistsAdmin(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)

	// Guests never count as administrators.
	guest := newTestAccount(t)
	require.NoError(t, repo.Create(ctx, guest))

	exists, err := repo.ExistsAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	admin := newTestAccount(t)
	admin.Role = auth.RoleAdministrator
	require.NoError(t, repo.Create(ctx, admin))

	exists, err = repo.ExistsAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAccountRepository_FindConflict(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)

	existing := newTestAccount(t)
	require.NoError(t, repo.Create(ctx, existing))

	fresh := newTestAccount(t) // never inserted, just unique values

	t.Run("no conflict for fresh values", func(t *testing.T) {
		conflict, err := repo.FindConflict(ctx, fresh.Username, fresh.Email, fresh.NationalID)
		require.NoError(t, err)
		assert.Equal(t, auth.ConflictNone, conflict)
	})

	t.Run("reports username conflict", func(t *testing.T) {
		conflict, err := repo.FindConflict(ctx, existing.Username, fresh.Email, fresh.NationalID)
		require.NoError(t, err)
		assert.Equal(t, auth.ConflictUsername, conflict)
	})

	t.Run("reports email conflict", func(t *testing.T) {
		conflict, err := repo.FindConflict(ctx, fresh.Username, existing.Email, fresh.NationalID)
		require.NoError(t, err)
		assert.Equal(t, auth.ConflictEmail, conflict)
	})

	t.Run("reports national id conflict", func(t *testing.T) {
		conflict, err := repo.FindConflict(ctx, fresh.Username, fresh.Email, existing.NationalID)
		require.NoError(t, err)
		assert.Equal(t, auth.ConflictNationalID, conflict)
	})

	t.Run("username takes precedence over email and national id", func(t *testing.T) {
		conflict, err := repo.FindConflict(ctx, existing.Username, existing.Email, existing.NationalID)
		require.NoError(t, err)
		assert.Equal(t, auth.ConflictUsername, conflict)
	})
}

func TestAccountRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)

	t.Run("persists login bookkeeping", func(t *testing.T) {
		account := newTestAccount(t)
		require.NoError(t, repo.Create(ctx, account))

		locked := time.Now().UTC().Add(auth.LockoutDuration).Truncate(time.Microsecond)
		account.FailedAttempts = auth.LockoutThreshold
		account.LockedUntil = &locked
		account.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, repo.Update(ctx, account))

		stored, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, auth.LockoutThreshold, stored.FailedAttempts)
		require.NotNil(t, stored.LockedUntil)
		assert.WithinDuration(t, locked, *stored.LockedUntil, time.Millisecond)
	})

	t.Run("unknown account returns not found", func(t *testing.T) {
		account := newTestAccount(t)
		err := repo.Update(ctx, account)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
