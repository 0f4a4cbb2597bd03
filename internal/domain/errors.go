package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. a label name that is blank after trimming).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned by the repo when a write collides with an existing
// row, typically a second label with the same name or slug.
// Handlers should map this to HTTP 409. Hook code treats it as a skipped write.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized is returned when a session or an anti-replay token is
// missing, malformed, expired, or bound to a different action or subject.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when an authenticated caller lacks the capability
// an operation requires.
var ErrForbidden = errors.New("forbidden")
