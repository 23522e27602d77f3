package stats

import (
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrSchemaTooNew means the stats database was written by a newer build.
	// Loading must not proceed; downgrading the schema is not supported.
	ErrSchemaTooNew = errors.New("stats database schema is newer than this build supports")

	// ErrStoreLocked means another process holds the stats database. This is
	// a configuration error (two instances on one profile), not a transient
	// fault, so writes are not retried.
	ErrStoreLocked = errors.New("stats database is locked by another process")

	// ErrDuplicateID means an insert collided with an existing encounter id,
	// which can only happen when two processes write the same profile.
	ErrDuplicateID = errors.New("encounter id already exists in the stats database")

	// ErrNoSpecies is a contract violation: an encounter summary must always
	// be associated with a resolvable species before it can be persisted.
	ErrNoSpecies = errors.New("encounter summary is not associated with a species")

	// ErrNoOpenPhase is returned when an operation requires an open shiny
	// phase and none exists.
	ErrNoOpenPhase = errors.New("no shiny phase is currently open")
)

// classifyWriteError maps driver-level failures onto the error taxonomy.
// Anything it recognizes is fatal for the process: continuing after a busy
// database or an id collision could corrupt statistics.
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %v", ErrStoreLocked, err)
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %v", ErrDuplicateID, err)
		}
	}

	return err
}
