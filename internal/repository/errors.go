// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// booking ledger and the handlers to distinguish between different
// failure scenarios without depending on the storage engine.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with a unique key,
// such as an access code already held by an active booking.
var ErrDuplicate = errors.New("duplicate entry")

// ErrForbidden is returned when the caller attempts an operation
// on a resource owned by another organization.  Handlers report it as
// not found.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registering an organization with an
// email that is already in use.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is MySQL error 1062.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
