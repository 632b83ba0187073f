package aidetect

import "errors"

// Error classes surfaced by the engine. Callers classify with errors.Is.
var (
	ErrValidation      = errors.New("invalid request")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrFetch           = errors.New("fetch failed")
	ErrDecode          = errors.New("decode failed")
	ErrInternal        = errors.New("internal error")
)
