package database

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"

	"storyhub/internal/apperr"
)

var (
	ErrNotFound  = apperr.New(apperr.NotFound, "not found")
	ErrConflict  = apperr.New(apperr.Conflict, "already exists")
	ErrReference = apperr.New(apperr.NotFound, "referenced record not found")
)

// Classify turns a driver error into one of the package sentinels so callers
// never inspect SQLite result codes. Unknown errors are returned with a stack
// trace attached.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(ErrNotFound.Kind, ErrNotFound.Msg, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperr.Wrap(ErrConflict.Kind, ErrConflict.Msg, err)
		case sqlite3.ErrConstraintForeignKey:
			return apperr.Wrap(ErrReference.Kind, ErrReference.Msg, err)
		}
	}
	return pkgerrors.WithStack(err)
}

// RequireAffected reports ErrNotFound when a write touched no rows.
func RequireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.WithStack(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
