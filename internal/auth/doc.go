// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

// Package auth implements the account registration and authentication
// core of the federation member portal.
//
// # Domain Types
//
// Account is the only persisted entity. Accounts are created exactly once
// through RegistrationService and are never mutated afterwards, except for
// login failure bookkeeping. Sessions are opaque server-side records bound
// to an account; the plaintext token never touches the database.
//
// # Services
//
//   - RegistrationService - validates and admits new accounts, enforcing
//     the single-administrator invariant
//   - Service - login, logout, session validation
//
// Services are created with New* constructors that validate dependencies.
// Repository interfaces (AccountRepository, SessionRepository) are
// implemented by the postgres subpackage.
package auth
