package service

import "errors"

// Business errors surfaced to handlers. Validation errors are never retried;
// transient store exhaustion and catalog outages map onto the two
// unavailability errors. A lost conditional write never shows up here; it is
// resolved inside the services by re-reading current state.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrMemberNotFound     = errors.New("member not found in room")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomClosed         = errors.New("room already reached a terminal state")
	ErrRoomNotStartable   = errors.New("room is not in a startable state")
	ErrRoomNotActive      = errors.New("room is not active")
	ErrInvalidVote        = errors.New("invalid vote: unknown vote type or content")
	ErrInvalidInviteCode  = errors.New("invalid or expired invite code")
	ErrCatalogUnavailable = errors.New("content catalog is unavailable")
	ErrServiceUnavailable = errors.New("store temporarily unavailable, try again")
	ErrInternalServer     = errors.New("internal server error")
)
