package tpsa

import "errors"

var (
	// ErrInvalidType is returned when a series is built from an unsupported value.
	ErrInvalidType = errors.New("tpsa: value is invalid type, must be a number, a sequence of numbers or a delegate")

	// ErrLength is returned when a coefficient sequence does not have order+1 entries.
	ErrLength = errors.New("tpsa: coefficient sequence has wrong length")

	// ErrOrderType is returned when the truncation order is not an integer.
	ErrOrderType = errors.New("tpsa: truncation order must be integer")

	// ErrOrderValue is returned when the truncation order is not greater than 1.
	ErrOrderValue = errors.New("tpsa: order must be greater than 1")

	// ErrDomain is returned when the sign of a series is ambiguous.
	ErrDomain = errors.New("tpsa: sign of series with zero base value is undefined")

	// ErrOrderMismatch is the panic value (wrapped) when series of different
	// lengths are combined.
	ErrOrderMismatch = errors.New("tpsa: series have different truncation orders")

	// ErrNotSeries is returned by function dispatch for non-series arguments.
	ErrNotSeries = errors.New("tpsa: function only accepts a series object")

	// ErrUnknownFunc is returned by function dispatch for an unknown name.
	ErrUnknownFunc = errors.New("tpsa: unknown function")
)
