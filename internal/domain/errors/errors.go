package errors

import "errors"

// Closed set of domain rule violations. Callers match with errors.Is and
// translate into their own surface; nothing here carries transport concerns.
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrNegativeBalance        = errors.New("negative balance not allowed")
	ErrDisputeIneligible      = errors.New("transaction not eligible for dispute")
	ErrDisputeAlreadyResolved = errors.New("dispute already resolved")
	ErrPurchaseFinalized      = errors.New("purchase already finalized")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
)
