package repository

import "errors"

// Common repository errors.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates an insert or update violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrConflict indicates a conditional write found a different prior value
	// than expected. Losing such a race is a normal outcome, not a failure:
	// callers re-read current state and react to what they find.
	ErrConflict = errors.New("repository: conditional write conflict")
	// ErrUnavailable indicates a transient store failure (timeout, throttling).
	// Callers retry a bounded number of times before surfacing it.
	ErrUnavailable = errors.New("repository: store temporarily unavailable")
)

// Per-resource aliases, kept for readable errors.Is checks at call sites.
var (
	ErrRoomNotFound   = ErrNotFound
	ErrMemberNotFound = ErrNotFound
	ErrVoteNotFound   = ErrNotFound
	ErrMatchNotFound  = ErrNotFound
)
