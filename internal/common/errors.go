package common

import "errors"

// Error kinds shared by the feature, training and prediction paths. Callers
// classify with errors.Is or KindOf; wrapped detail stays in the error chain.
var (
	// ErrInputValidation marks missing or malformed required input fields.
	ErrInputValidation = errors.New("input validation failed")

	// ErrEmptySeries marks a series with no usable rows after coercion.
	ErrEmptySeries = errors.New("no valid rows after parsing date/score")

	// ErrModelUnavailable marks a prediction attempted with no artifact loaded.
	// It is retryable once training completes.
	ErrModelUnavailable = errors.New("model unavailable")
)

// Kind is the stable, caller-facing name of an error class.
type Kind string

const (
	KindInputValidation  Kind = "input_validation"
	KindEmptySeries      Kind = "empty_series"
	KindModelUnavailable Kind = "model_unavailable"
	KindInternal         Kind = "internal"
)

// KindOf classifies err. Anything not matching a known sentinel is internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptySeries):
		return KindEmptySeries
	case errors.Is(err, ErrInputValidation):
		return KindInputValidation
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	default:
		return KindInternal
	}
}

// IsClientError reports whether err is correctable by the caller.
func IsClientError(err error) bool {
	k := KindOf(err)
	return k == KindInputValidation || k == KindEmptySeries
}

// IsRetryable reports whether err is an operational condition worth retrying.
func IsRetryable(err error) bool {
	return KindOf(err) == KindModelUnavailable
}
