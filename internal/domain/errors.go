package domain

import "errors"

var (
	// ErrInvalidInput reports malformed, mismatched-length or NaN-containing arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData reports a sample too small for the requested statistic.
	ErrInsufficientData = errors.New("insufficient data")
)
