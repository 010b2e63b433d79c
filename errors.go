package admitq

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("admitq: no store configured")
	ErrStoreClosed = errors.New("admitq: store closed")

	// Not found errors.
	ErrTokenNotFound = errors.New("admitq: token not found")
	ErrEventNotFound = errors.New("admitq: event not found")

	// Admission errors.
	ErrDuplicateActive = errors.New("admitq: patient already has an active token")
	ErrRateLimited     = errors.New("admitq: admission rate limit exceeded")

	// Validation errors.
	ErrInvalidPriority = errors.New("admitq: invalid priority class")
	ErrInvalidStatus   = errors.New("admitq: token is not active")
	ErrMissingPatient  = errors.New("admitq: patient identity required")

	// Access errors.
	ErrPermissionDenied = errors.New("admitq: caller lacks required capability")

	// Consistency errors.
	ErrConflict    = errors.New("admitq: concurrent mutation conflict")
	ErrUnavailable = errors.New("admitq: store unavailable")
)
