package domain

import "errors"

// Error taxonomy of the kernel. All violations are raised synchronously at
// the offending call and leave ledger state untouched; there is nothing
// transient or retryable in a pure computation kernel.
var (
	// ErrConfiguration marks invalid engine construction input
	// (e.g. non-positive tick size).
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation marks invalid operation input (non-positive
	// quantities, mismatched batch array lengths).
	ErrValidation = errors.New("validation error")
)
