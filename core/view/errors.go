package view

import "errors"

// Errors returned by the view operations. Filter and Sort never fail.
var (
	// ErrInvalidArgument is returned when a page size is not positive.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyInput is returned when a CSV export is requested for zero rows.
	ErrEmptyInput = errors.New("no data to export")
)
