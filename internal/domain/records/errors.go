package records

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrNotConfirmed  = errors.New("confirmation required")
	ErrInvalidBundle = errors.New("invalid backup bundle")
)
