// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Sentinel errors for errors.Is dispatch across the repository boundary.
// Services wrap these with oops codes before returning to callers.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAdminExists is returned when a second Administrator account
	// would be created. The database partial unique index raises it even
	// when two requests race past the ExistsAdmin check.
	ErrAdminExists = errors.New("administrator account already exists")

	// ErrDuplicateUsername is returned when the username is taken.
	ErrDuplicateUsername = errors.New("username already registered")

	// ErrDuplicateEmail is returned when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateNationalID is returned when the national identity
	// number is taken.
	ErrDuplicateNationalID = errors.New("national identity number already registered")
)

// isConflict reports whether err is one of the duplicate-field sentinels.
func isConflict(err error) bool {
	return errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicateNationalID)
}

// isAdminExists reports whether err is the single-administrator sentinel.
func isAdminExists(err error) bool {
	return errors.Is(err, ErrAdminExists)
}

// wrapConflict attaches the oops code matching a duplicate-field sentinel.
func wrapConflict(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateUsername):
		return oops.Code("AUTH_DUPLICATE_USERNAME").Wrap(err)
	case errors.Is(err, ErrDuplicateEmail):
		return oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(err)
	case errors.Is(err, ErrDuplicateNationalID):
		return oops.Code("AUTH_DUPLICATE_NATIONAL_ID").Wrap(err)
	default:
		return err
	}
}
