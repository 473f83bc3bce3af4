// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow handlers to distinguish
// between failure scenarios without inspecting driver errors themselves.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist (or is
// soft-deleted and the caller did not ask for soft-deleted rows).
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with a unique index,
// including collisions with soft-deleted rows.
var ErrConflict = errors.New("conflict")

// ErrStillReferenced is returned when a hard delete is blocked by rows that
// reference the target through a foreign key.
var ErrStillReferenced = errors.New("still referenced")

// ErrInvalidReference is returned when a write points a foreign key at a row
// that does not exist.
var ErrInvalidReference = errors.New("invalid reference")

// ErrNotSoftDeleted is returned by Restore and ForceDelete on live rows.
var ErrNotSoftDeleted = errors.New("must be soft deleted first")

// ErrNotPending is returned when verifying a customer that is not awaiting
// verification.
var ErrNotPending = errors.New("not awaiting verification")

// ErrCodeMismatch is returned when the supplied confirmation code differs
// from the stored one.
var ErrCodeMismatch = errors.New("confirmation code mismatch")

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// translate maps driver errors onto the sentinels above.  Unknown errors are
// returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrStillReferenced
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return ErrConflict
		case mysqlRowIsReferenced:
			return ErrStillReferenced
		case mysqlNoReferencedRow:
			return ErrInvalidReference
		}
		return err
	}

	// SQLite reports constraint failures only through the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"):
		return ErrConflict
	case strings.Contains(msg, "foreign key constraint failed"):
		return ErrStillReferenced
	}
	return err
}

// translateWrite is translate for INSERT and UPDATE, where a foreign key
// failure can only mean the new value points nowhere.  SQLite reports both
// directions with the same message.
func translateWrite(err error) error {
	err = translate(err)
	if errors.Is(err, ErrStillReferenced) {
		return ErrInvalidReference
	}
	return err
}
