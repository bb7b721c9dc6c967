package shared

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStatus indicates a lifecycle transition not allowed from the current status.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrDuplicateConversion indicates the source document already has an invoice.
	ErrDuplicateConversion = errors.New("source document already converted")
	// ErrUnsizableProject indicates the project topology yields zero billable units.
	ErrUnsizableProject = errors.New("project topology yields no billable units")
	// ErrNegativeBalance indicates a stock adjustment would drive quantity below zero.
	ErrNegativeBalance = errors.New("stock quantity would go negative")
)
