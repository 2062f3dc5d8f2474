package analyzer

import "errors"

var (
	// ErrNoStorage is returned when a request needs object storage but none
	// is configured.
	ErrNoStorage = errors.New("object storage is not configured")

	// ErrNoRepository is returned when a request asks to persist but no
	// database is configured.
	ErrNoRepository = errors.New("report database is not configured")
)
