package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrVersionMismatch = errors.New("version mismatch")
	ErrInternal        = errors.New("internal server error")
)

// Dispatch errors. The first three are recoverable and scoped to a single
// notification; the last two signal a programming error.
var (
	ErrUnresolvableAddress = errors.New("unresolvable notification address")
	ErrSendFailure         = errors.New("notification send failure")
	ErrStoreFailure        = errors.New("notification store failure")
	ErrInvalidStatus       = errors.New("invalid notification status")
	ErrInvalidTransition   = errors.New("invalid notification status transition")
)
