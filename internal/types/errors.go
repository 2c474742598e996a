package types

import "errors"

var (
	// ErrUnknownEnum indicates a value outside a closed set of tags.
	ErrUnknownEnum = errors.New("unknown enum value")
	// ErrInvalidDate indicates a malformed calendar date.
	ErrInvalidDate = errors.New("invalid date")
)
