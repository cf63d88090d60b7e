// Package remote maps backend failures onto the shared error taxonomy.
package remote

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ringline-app/backend/internal/errors"
)

// Postgres SQLSTATE classes and codes that mark terminal failures.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codePrivilegeViolation  = "42501"
	classInvalidAuth        = "28"
)

// mapError converts a raw backend error into an AppError whose code the
// retry wrapper can classify. Unknown failures are treated as network
// errors, which keeps them retryable.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrTimeout, op, err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return errors.Wrap(errors.ErrDuplicate, op, err)
		case pgErr.Code == codeForeignKeyViolation:
			return errors.Wrap(errors.ErrForeignKey, op, err)
		case pgErr.Code == codeNotNullViolation, pgErr.Code == codeCheckViolation:
			return errors.Wrap(errors.ErrValidation, op, err)
		case pgErr.Code == codePrivilegeViolation:
			return errors.Wrap(errors.ErrPermission, op, err)
		case strings.HasPrefix(pgErr.Code, classInvalidAuth):
			return errors.Wrap(errors.ErrAuth, op, err)
		}
	}

	return errors.Wrap(errors.ErrNetwork, op, err)
}
