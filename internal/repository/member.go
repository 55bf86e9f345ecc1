package repository

import (
	"context"
	"time"

	"matchroom/internal/domain"
)

// MemberRepository defines storage and retrieval for room members. Shuffled
// list and index updates are conditional writes guarded on the values the
// caller last read.
type MemberRepository interface {
	// FindByRoomAndUser looks one membership up; ErrMemberNotFound when missing.
	FindByRoomAndUser(ctx context.Context, roomID, userID uint) (*domain.Member, error)

	// FindByRoom returns every member of the room.
	FindByRoom(ctx context.Context, roomID uint) ([]domain.Member, error)

	// CountByRoom returns the number of members in the room.
	CountByRoom(ctx context.Context, roomID uint) (int64, error)

	// Save creates the member, or updates it by primary key. A duplicate
	// (room_id, user_id) insert returns ErrDuplicateEntry.
	Save(ctx context.Context, member *domain.Member) error

	// CreateIfCapacity inserts the member guarded on the room's current member
	// count staying below maxMembers, so concurrent joins cannot overfill the
	// room. ErrConflict when the room is full, ErrDuplicateEntry when the user
	// already joined.
	CreateIfCapacity(ctx context.Context, member *domain.Member, maxMembers int) error

	// UpdateShuffledListIf replaces the member's shuffled list and current
	// index, guarded on the current list version. The version is bumped on
	// success; ErrConflict on a stale version.
	UpdateShuffledListIf(ctx context.Context, memberID uint, ids []domain.ContentID, currentIndex int, expectedVersion uint) error

	// UpdateCurrentIndexIf advances the next-unseen pointer, guarded on its
	// expected current value, and bumps the list version so concurrent list
	// writers holding the old version lose their guard and re-read instead of
	// writing the stale index back. ErrConflict when another caller moved the
	// pointer first.
	UpdateCurrentIndexIf(ctx context.Context, memberID uint, next, expected int) error

	// TouchActivity sets last_activity_at and resets the persisted activity
	// status to ACTIVE. Idempotent; ErrMemberNotFound when no such membership.
	TouchActivity(ctx context.Context, roomID, userID uint, at time.Time) error

	// UpdateActivityStatus persists the swept activity status projection.
	UpdateActivityStatus(ctx context.Context, memberID uint, status domain.ActivityStatus) error
}
