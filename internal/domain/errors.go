package domain

import "errors"

// Sentinel error classes. Callers wrap them with fmt.Errorf("%w: ...") and
// transports classify with errors.Is.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("not found")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)

// IsClassified reports whether err already carries one of the sentinel classes.
func IsClassified(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTooManyRequests) ||
		errors.Is(err, ErrInternal)
}
