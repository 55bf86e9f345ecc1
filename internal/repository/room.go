package repository

import (
	"context"

	"matchroom/internal/domain"
)

// RoomRepository defines storage and retrieval for rooms. Every cross-member
// invariant on the room row (monotonic status, consistent master list) is
// expressed as a conditional write: implementations must return ErrConflict
// when the guard does not hold, never silently overwrite.
type RoomRepository interface {
	// FindByID looks a room up by id; ErrRoomNotFound when missing.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByInviteCode looks a room up by invite code; ErrRoomNotFound when missing.
	FindByInviteCode(ctx context.Context, code string) (*domain.Room, error)

	// FindByStatus returns all rooms currently in the given status.
	// Used by the periodic refresh and activity sweeps.
	FindByStatus(ctx context.Context, status domain.RoomStatus) ([]domain.Room, error)

	// Save creates the room, or updates it by primary key.
	Save(ctx context.Context, room *domain.Room) error

	// IsInviteCodeExists checks whether an invite code is already taken.
	IsInviteCodeExists(ctx context.Context, code string) (bool, error)

	// UpdateStatusIf transitions the room from exactly `from` to `next`.
	// ErrConflict when the stored status is anything else.
	UpdateStatusIf(ctx context.Context, roomID uint, from, next domain.RoomStatus) error

	// MarkMatched flips the room to MATCHED and records the winning content id,
	// guarded on the status not already being terminal. ErrConflict when the
	// flip already happened.
	MarkMatched(ctx context.Context, roomID uint, contentID domain.ContentID) error

	// MarkClosed flips the room to CLOSED, guarded on the status not already
	// being terminal. ErrConflict when it is.
	MarkClosed(ctx context.Context, roomID uint) error

	// UpdateMasterListIf replaces the master list, guarded on the current list
	// version. The version is bumped on success; ErrConflict on a stale version.
	UpdateMasterListIf(ctx context.Context, roomID uint, ids []domain.ContentID, expectedVersion uint) error
}
