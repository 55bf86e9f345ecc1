package repository

import (
	"context"

	"matchroom/internal/domain"
)

// MatchRepository defines storage for matches. CreateIfAbsent is the
// exactly-once primitive of the whole consensus flow.
type MatchRepository interface {
	// CreateIfAbsent inserts the match guarded on no match existing yet for
	// (room_id, content_id). Exactly one concurrent caller succeeds; the rest
	// get ErrDuplicateEntry and re-read the winner.
	CreateIfAbsent(ctx context.Context, match *domain.Match) error

	// FindByRoomAndContent returns the match for one (room, content) pair;
	// ErrMatchNotFound when none exists.
	FindByRoomAndContent(ctx context.Context, roomID uint, contentID domain.ContentID) (*domain.Match, error)

	// FindByRoom returns the room's matches, newest first, at most limit.
	FindByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Match, error)

	// FindRecentByParticipant returns the newest matches a user participated
	// in, at most limit.
	FindRecentByParticipant(ctx context.Context, userID uint, limit int) ([]domain.Match, error)

	// MarkNotified flips notifications_sent, guarded on it still being false.
	// ErrConflict when another caller already sent the notifications.
	MarkNotified(ctx context.Context, matchID uint) error
}
