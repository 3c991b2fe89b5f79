// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedeportal/fedeportal/internal/auth"
)

func TestCantons(t *testing.T) {
	cantons := auth.Cantons()
	require.Len(t, cantons, 9)
	assert.Equal(t, "Ambato", cantons[0])

	t.Run("returned slice is a copy", func(t *testing.T) {
		cantons[0] = "mutated"
		assert.Equal(t, "Ambato", auth.Cantons()[0])
	})
}

func TestValidCanton(t *testing.T) {
	for _, canton := range auth.Cantons() {
		assert.True(t, auth.ValidCanton(canton), "canton %q should be valid", canton)
	}

	assert.False(t, auth.ValidCanton(""))
	assert.False(t, auth.ValidCanton("Quito"))
	assert.False(t, auth.ValidCanton("ambato"), "comparison is exact, not case-folded")
	assert.False(t, auth.ValidCanton("Banos"), "accents are part of the canonical value")
}
