package features

import "errors"

var (
	// ErrMalformedInput is returned when the input buffer is missing or unusable
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptyInput is returned when a multi-file request names no files
	ErrEmptyInput = errors.New("no input files")

	// ErrAllMetricsUnavailable is returned alongside a report in which no
	// metric could be computed
	ErrAllMetricsUnavailable = errors.New("no metric could be computed")

	// ErrNoUsableInput is returned when every file of a multi-file request failed
	ErrNoUsableInput = errors.New("no usable input")
)
