// Package remote tests for backend error classification.
package remote

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline-app/backend/internal/errors"
)

func TestMapError_Nil(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
}

func TestMapError_PostgresCodes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want errors.ErrorCode
	}{
		{"unique violation", "23505", errors.ErrDuplicate},
		{"foreign key violation", "23503", errors.ErrForeignKey},
		{"not null violation", "23502", errors.ErrValidation},
		{"check violation", "23514", errors.ErrValidation},
		{"privilege violation", "42501", errors.ErrPermission},
		{"invalid password", "28P01", errors.ErrAuth},
		{"invalid authorization", "28000", errors.ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, Message: tt.name}
			got := mapError("upsert contact", fmt.Errorf("exec: %w", pgErr))

			assert.Equal(t, tt.want, errors.CodeOf(got))
			// Terminal codes must short-circuit the retry wrapper.
			assert.True(t, errors.IsTerminal(got), "pg code %s should be terminal", tt.code)
		})
	}
}

func TestMapError_UnknownPgCodeIsRetryable(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "57P01", Message: "admin shutdown"}
	got := mapError("op", pgErr)

	require.Error(t, got)
	assert.Equal(t, errors.ErrNetwork, errors.CodeOf(got))
	assert.False(t, errors.IsTerminal(got))
}

func TestMapError_Timeout(t *testing.T) {
	got := mapError("list contacts", fmt.Errorf("query: %w", context.DeadlineExceeded))

	assert.Equal(t, errors.ErrTimeout, errors.CodeOf(got))
	assert.False(t, errors.IsTerminal(got))
}

func TestMapError_CancellationPassesThrough(t *testing.T) {
	got := mapError("op", context.Canceled)
	assert.True(t, stderrors.Is(got, context.Canceled))
}

func TestMapError_PlainNetworkError(t *testing.T) {
	got := mapError("op", stderrors.New("connection refused"))

	assert.Equal(t, errors.ErrNetwork, errors.CodeOf(got))
	assert.False(t, errors.IsTerminal(got))
}
