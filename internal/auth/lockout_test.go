// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedeportal/fedeportal/internal/auth"
)

func TestCheckFailures(t *testing.T) {
	t.Run("zero failures has no delay", func(t *testing.T) {
		state := auth.CheckFailures(0, nil)
		assert.Zero(t, state.Delay)
		assert.False(t, state.IsLockedOut)
	})

	t.Run("progressive delay doubles per failure", func(t *testing.T) {
		tests := []struct {
			failures int
			delay    time.Duration
		}{
			{1, 1 * time.Second},
			{2, 2 * time.Second},
			{3, 4 * time.Second},
			{4, 8 * time.Second},
			{5, 16 * time.Second},
			{6, 32 * time.Second},
		}
		for _, tt := range tests {
			state := auth.CheckFailures(tt.failures, nil)
			assert.Equal(t, tt.delay, state.Delay, "failures=%d", tt.failures)
			assert.False(t, state.IsLockedOut)
		}
	})

	t.Run("threshold triggers lockout", func(t *testing.T) {
		state := auth.CheckFailures(auth.LockoutThreshold, nil)
		assert.True(t, state.IsLockedOut)
		assert.Equal(t, auth.LockoutDuration, state.LockoutRemaining)
	})

	t.Run("existing lockout wins", func(t *testing.T) {
		until := time.Now().Add(5 * time.Minute)
		state := auth.CheckFailures(1, &until)
		assert.True(t, state.IsLockedOut)
		assert.Greater(t, state.LockoutRemaining, 4*time.Minute)
	})

	t.Run("expired lockout falls back to delay", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		state := auth.CheckFailures(2, &past)
		assert.False(t, state.IsLockedOut)
		assert.Equal(t, 2*time.Second, state.Delay)
	})
}

func TestIsLockedOut(t *testing.T) {
	assert.False(t, auth.IsLockedOut(nil))

	future := time.Now().Add(time.Minute)
	assert.True(t, auth.IsLockedOut(&future))

	past := time.Now().Add(-time.Minute)
	assert.False(t, auth.IsLockedOut(&past))
}

func TestComputeLockoutTime(t *testing.T) {
	assert.Nil(t, auth.ComputeLockoutTime(0))
	assert.Nil(t, auth.ComputeLockoutTime(auth.LockoutThreshold-1))

	lockout := auth.ComputeLockoutTime(auth.LockoutThreshold)
	require.NotNil(t, lockout)
	assert.WithinDuration(t, time.Now().Add(auth.LockoutDuration), *lockout, time.Second)
}
