package analytics

import (
	"errors"
)

var (
	// ErrBookNotFound is returned by BookAvailability when no book with the
	// given id exists. The other operations degrade to empty or zero results
	// for unknown ids instead of failing.
	ErrBookNotFound = errors.New("book not found")

	// ErrNilDatabaseConnection is returned by the engine constructors when a
	// nil connection or pool is supplied.
	ErrNilDatabaseConnection = errors.New("nil database connection supplied")

	// ErrEmptyTableName is returned when an engine option is given an empty
	// table name.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrBuildingQueryFailed wraps failures while rendering a SQL statement.
	ErrBuildingQueryFailed = errors.New("building sql query failed")

	// ErrQueryingStoreFailed wraps store errors during query execution; the
	// underlying error is propagated unchanged for the transport to map.
	ErrQueryingStoreFailed = errors.New("querying the record store failed")

	// ErrScanningRowFailed wraps row scan failures.
	ErrScanningRowFailed = errors.New("scanning database row failed")
)
