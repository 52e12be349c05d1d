package session

import "errors"

var (
	ErrInvalidTransition = errors.New("operation not allowed in the current mode")
	ErrNoRecord          = errors.New("no record for the selected staff")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrPrintUnavailable  = errors.New("printing is not configured")
)
