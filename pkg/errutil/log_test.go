// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedeportal/fedeportal/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TEST_ERROR").
		With("key", "value").
		Errorf("something failed")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.Equal(t, "TEST_ERROR", logEntry["code"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := errors.New("standard error")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
}

func TestLogError_OopsWithoutCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Errorf("uncoded failure")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.NotContains(t, logEntry, "code")
	assert.Contains(t, logEntry["error"], "uncoded failure")
}

func TestCode(t *testing.T) {
	assert.Equal(t, "TEST_ERROR", errutil.Code(oops.Code("TEST_ERROR").Errorf("boom")))
	assert.Equal(t, "", errutil.Code(oops.Errorf("no code")))
	assert.Equal(t, "", errutil.Code(errors.New("standard error")))
	assert.Equal(t, "", errutil.Code(nil))
}

func TestContextValue(t *testing.T) {
	err := oops.Code("AUTH_MISSING_FIELD").With("field", "email").Errorf("required field email is missing")
	assert.Equal(t, "email", errutil.ContextValue(err, "field"))
	assert.Equal(t, "", errutil.ContextValue(err, "missing"))
	assert.Equal(t, "", errutil.ContextValue(oops.With("n", 7).Errorf("boom"), "n"))
	assert.Equal(t, "", errutil.ContextValue(errors.New("standard error"), "field"))
	assert.Equal(t, "", errutil.ContextValue(nil, "field"))
}

func TestCode_WrappedError(t *testing.T) {
	inner := errors.New("inner")
	err := oops.Code("WRAPPED").Wrap(inner)
	assert.Equal(t, "WRAPPED", errutil.Code(err))
	assert.ErrorIs(t, err, inner)
}
