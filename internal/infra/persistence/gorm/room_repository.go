// Package gormpersistence implements the repository interfaces on GORM/MySQL.
// The store's only synchronization primitives are guarded UPDATEs (RowsAffected
// zero means the guard failed) and unique-index inserts.
package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// GormRoomRepository is the GORM implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a GormRoomRepository instance.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByID implements lookup by room id.
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, translateError(err))
	}
	return &room, nil
}

// FindByInviteCode implements lookup by invite code.
func (r *GormRoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by invite code '%s': %w", code, translateError(err))
	}
	return &room, nil
}

// FindByStatus implements listing rooms by lifecycle status.
func (r *GormRoomRepository) FindByStatus(ctx context.Context, status domain.RoomStatus) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Where("status = ?", status).Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find rooms by status '%s': %w", status, translateError(err))
	}
	return rooms, nil
}

// Save implements create-or-update by primary key.
func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Save(room).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d, invite_code: %s): %w", room.ID, room.InviteCode, translateError(err))
	}
	return nil
}

// IsInviteCodeExists implements the invite code uniqueness probe.
func (r *GormRoomRepository) IsInviteCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("invite_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by invite code '%s': %w", code, translateError(err))
	}
	return count > 0, nil
}

// UpdateStatusIf implements the exact from->next status transition.
// A zero RowsAffected means the stored status was something else.
func (r *GormRoomRepository) UpdateStatusIf(ctx context.Context, roomID uint, from, next domain.RoomStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ? AND status = ?", roomID, from).
		Update("status", next)
	if result.Error != nil {
		return fmt.Errorf("gorm: update room %d status %s->%s: %w", roomID, from, next, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// MarkMatched implements the terminal MATCHED flip, guarded on the status not
// already being terminal.
func (r *GormRoomRepository) MarkMatched(ctx context.Context, roomID uint, contentID domain.ContentID) error {
	result := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ? AND status NOT IN ?", roomID, []string{domain.RoomStatusMatched, domain.RoomStatusClosed}).
		Updates(map[string]interface{}{
			"status":            domain.RoomStatusMatched,
			"result_content_id": contentID,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: mark room %d matched: %w", roomID, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// MarkClosed implements the terminal CLOSED flip, guarded the same way.
func (r *GormRoomRepository) MarkClosed(ctx context.Context, roomID uint) error {
	result := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ? AND status NOT IN ?", roomID, []string{domain.RoomStatusMatched, domain.RoomStatusClosed}).
		Update("status", domain.RoomStatusClosed)
	if result.Error != nil {
		return fmt.Errorf("gorm: mark room %d closed: %w", roomID, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// UpdateMasterListIf implements the version-guarded master list replacement.
func (r *GormRoomRepository) UpdateMasterListIf(ctx context.Context, roomID uint, ids []domain.ContentID, expectedVersion uint) error {
	var room domain.Room
	if err := room.SetMasterList(ids); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ? AND list_version = ?", roomID, expectedVersion).
		Updates(map[string]interface{}{
			"master_list":  room.MasterList,
			"list_version": gorm.Expr("list_version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: update master list for room %d (v%d): %w", roomID, expectedVersion, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}
