package lifecycle

import "errors"

// Every lifecycle violation maps onto one of these sentinels; handlers
// translate them to HTTP status codes and surface the wrapped message.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation error")
)
