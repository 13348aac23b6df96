package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRows is returned when reading a result set fails.
	ErrScanningRows = errors.New("error scanning sql rows")

	// ErrContactNotSaved is returned when persisting the contact snapshot
	// completes without error but affected no rows.
	ErrContactNotSaved = errors.New("contact was not saved")

	// ErrEmptyDeviceID is returned when an empty device id is offered to
	// the trusted-device list. An empty id can never be trusted.
	ErrEmptyDeviceID = errors.New("empty device id")
)
