package repository

import (
	"context"

	"matchroom/internal/domain"
)

// VoteRepository defines storage for the append-only vote log.
type VoteRepository interface {
	// Create inserts a vote. The (room_id, user_id, content_id) unique index
	// makes re-votes come back as ErrDuplicateEntry; callers treat that as the
	// idempotent "already recorded" outcome.
	Create(ctx context.Context, vote *domain.Vote) error

	// FindByKey returns the vote for one (room, user, content) key;
	// ErrVoteNotFound when the member has not voted on the item.
	FindByKey(ctx context.Context, roomID, userID uint, contentID domain.ContentID) (*domain.Vote, error)

	// FindByRoomAndContent returns all votes cast on one content item in a
	// room, the snapshot a unanimity check runs over.
	FindByRoomAndContent(ctx context.Context, roomID uint, contentID domain.ContentID) ([]domain.Vote, error)
}
