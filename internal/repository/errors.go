// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to tell
// store-level failures apart without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same email is already stored.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned when an insert violates a unique key other than
// the user email.
var ErrDuplicate = errors.New("duplicate entry")

// ErrInvalidReference is returned when a row points at a lesson that does
// not exist.
var ErrInvalidReference = errors.New("invalid reference")

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

func isMissingReference(err error) bool { return mysqlErrNumber(err) == mysqlNoReferencedRow }
