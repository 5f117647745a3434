package services

import "errors"

// Service-level sentinel errors. Handlers map these to API error responses.
var (
	// ErrSessionNotFound indicates the requested merge session does not exist
	// or has expired.
	ErrSessionNotFound = errors.New("merge session not found")

	// ErrNothingToExport indicates an export was requested before any rows
	// were merged.
	ErrNothingToExport = errors.New("no merged data to export")
)
