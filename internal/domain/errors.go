package domain

import "errors"

// Error kinds raised by the decimal/money and position components.
// Producer-specific kinds live in internal/producer/errors.go.
var (
	// ErrNullIdentifier is raised by the position constructor when a
	// required identifier carries the null sentinel.
	ErrNullIdentifier = errors.New("domain: null identifier")

	// ErrInvalidOrderSide is raised by side derivation when the order
	// side is UNDEFINED.
	ErrInvalidOrderSide = errors.New("domain: invalid order side")

	// ErrDuplicateExecution is raised by Position.Apply when an
	// execution_id has already been applied.
	ErrDuplicateExecution = errors.New("domain: duplicate execution")

	// ErrCurrencyMismatch is raised by Money arithmetic across
	// differing currencies.
	ErrCurrencyMismatch = errors.New("domain: currency mismatch")
)
