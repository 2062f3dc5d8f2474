package parser

import "errors"

var (
	// ErrReadFailed is returned when the input cannot be read.
	ErrReadFailed = errors.New("failed to read input")

	// ErrInputTooLarge is returned when the input exceeds the configured size limit.
	ErrInputTooLarge = errors.New("input exceeds size limit")

	// ErrUnsupportedFormat is returned when the format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
