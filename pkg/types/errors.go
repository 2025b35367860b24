package types

import "errors"

// Year parameter errors
var (
	// ErrYearMissing is returned when a year parameter is absent or blank
	ErrYearMissing = errors.New("year parameter is required")

	// ErrYearInvalid is returned when a year parameter is not an integer
	ErrYearInvalid = errors.New("year parameter must be an integer")
)
