package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsTransient reports whether err is a lock conflict that clears once the
// other connection finishes. Open failures, bad paths and schema errors are
// permanent.
func IsTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
