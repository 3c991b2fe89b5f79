// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package web_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fedeportal/fedeportal/internal/auth"
	"github.com/fedeportal/fedeportal/internal/auth/mocks"
	"github.com/fedeportal/fedeportal/internal/web"
)

// TestServer_StartStop verifies the serve goroutine exits on Stop.
func TestServer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	accounts := mocks.NewMockAccountRepository(t)
	sessions := mocks.NewMockSessionRepository(t)
	hasher := auth.NewArgon2idHasher()

	authSvc, err := auth.NewAuthService(accounts, sessions, hasher)
	require.NoError(t, err)
	regSvc, err := auth.NewRegistrationService(accounts, hasher)
	require.NoError(t, err)

	server, err := web.NewServer(web.Options{
		Addr:         "127.0.0.1:0",
		Auth:         authSvc,
		Registration: regSvc,
		CookieName:   "fedeportal_session",
	})
	require.NoError(t, err)

	errCh, err := server.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			require.NoError(t, err)
		}
	case <-time.After(time.Second):
		t.Fatal("error channel not closed after Stop")
	}
}
