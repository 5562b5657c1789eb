package database

import (
	"errors"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// pgUniqueViolation is the postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure raised by either driver.
func IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var perr *pq.Error
	if errors.As(err, &perr) {
		return perr.Code == pgUniqueViolation
	}
	return false
}

// translate classifies a failed write. Constraint violations become
// DUPLICATE_KEY errors for entity and key, everything else DATABASE.
func translate(err error, operation string, entity string, key any) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return apperrors.DuplicateKey(operation, entity, key)
	}
	return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, operation, "statement failed", entity, err)
}
