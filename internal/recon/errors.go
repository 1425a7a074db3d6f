package recon

import "errors"

var (
	// ErrValidation marks malformed or incomplete callbacks. Surfaced as 400,
	// never retried internally.
	ErrValidation = errors.New("recon: invalid callback")

	// ErrPersistence marks local storage failures. Surfaced as 500 and
	// logged with full context; not retried automatically.
	ErrPersistence = errors.New("recon: persistence failure")

	// ErrDurationUnavailable is the soft condition "no duration source
	// yielded a positive value". It schedules a retry and is never
	// propagated to the webhook caller.
	ErrDurationUnavailable = errors.New("recon: duration unavailable")
)
