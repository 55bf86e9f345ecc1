package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// GormMemberRepository is the GORM implementation of MemberRepository.
type GormMemberRepository struct {
	db *gorm.DB
}

// NewGormMemberRepository creates a GormMemberRepository instance.
func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMemberRepository")
	}
	return &GormMemberRepository{db: db}
}

// FindByRoomAndUser implements lookup of one membership.
func (r *GormMemberRepository) FindByRoomAndUser(ctx context.Context, roomID, userID uint) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMemberNotFound
		}
		return nil, fmt.Errorf("gorm: find member (room %d, user %d): %w", roomID, userID, translateError(err))
	}
	return &member, nil
}

// FindByRoom implements listing all members of a room.
func (r *GormMemberRepository) FindByRoom(ctx context.Context, roomID uint) ([]domain.Member, error) {
	var members []domain.Member
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("joined_at asc").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find members for room %d: %w", roomID, translateError(err))
	}
	return members, nil
}

// CountByRoom implements the member count probe used for capacity checks.
func (r *GormMemberRepository) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Member{}).Where("room_id = ?", roomID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count members for room %d: %w", roomID, translateError(err))
	}
	return count, nil
}

// Save implements create-or-update by primary key. A duplicate
// (room_id, user_id) insert surfaces as ErrDuplicateEntry.
func (r *GormMemberRepository) Save(ctx context.Context, member *domain.Member) error {
	if err := r.db.WithContext(ctx).Save(member).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save member (room %d, user %d): %w", member.RoomID, member.UserID, translateError(err))
	}
	return nil
}

// CreateIfCapacity implements the count-guarded member insert. The capacity
// check and the insert are one statement, so two concurrent joins racing for
// the last seat cannot both commit.
func (r *GormMemberRepository) CreateIfCapacity(ctx context.Context, member *domain.Member, maxMembers int) error {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO members
		   (room_id, user_id, role, activity_status, shuffled_list, list_version,
		    current_index, last_activity_at, joined_at, updated_at)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		 FROM DUAL
		 WHERE (SELECT COUNT(*) FROM members m WHERE m.room_id = ?) < ?`,
		member.RoomID, member.UserID, member.Role, member.ActivityStatus,
		member.ShuffledList, member.ListVersion, member.CurrentIndex,
		member.LastActivityAt, member.LastActivityAt, member.LastActivityAt,
		member.RoomID, maxMembers)
	if result.Error != nil {
		if isDuplicateEntry(result.Error) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create member (room %d, user %d): %w",
			member.RoomID, member.UserID, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// UpdateShuffledListIf implements the version-guarded shuffled list write.
func (r *GormMemberRepository) UpdateShuffledListIf(ctx context.Context, memberID uint, ids []domain.ContentID, currentIndex int, expectedVersion uint) error {
	var member domain.Member
	if err := member.SetShuffledList(ids); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&domain.Member{}).
		Where("id = ? AND list_version = ?", memberID, expectedVersion).
		Updates(map[string]interface{}{
			"shuffled_list": member.ShuffledList,
			"current_index": currentIndex,
			"list_version":  gorm.Expr("list_version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: update shuffled list for member %d (v%d): %w", memberID, expectedVersion, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// UpdateCurrentIndexIf implements the guarded next-unseen pointer advance.
// The advance also bumps list_version: list writers snapshot both fields, so a
// pointer move must invalidate their version guard or they would write the
// stale index back.
func (r *GormMemberRepository) UpdateCurrentIndexIf(ctx context.Context, memberID uint, next, expected int) error {
	result := r.db.WithContext(ctx).Model(&domain.Member{}).
		Where("id = ? AND current_index = ?", memberID, expected).
		Updates(map[string]interface{}{
			"current_index": next,
			"list_version":  gorm.Expr("list_version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: update current index for member %d (%d->%d): %w", memberID, expected, next, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// TouchActivity implements the idempotent activity reset. Setting the same
// timestamp twice is harmless, so no guard is needed here.
func (r *GormMemberRepository) TouchActivity(ctx context.Context, roomID, userID uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Member{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]interface{}{
			"last_activity_at": at,
			"activity_status":  domain.MemberActive,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: touch activity (room %d, user %d): %w", roomID, userID, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrMemberNotFound
	}
	return nil
}

// UpdateActivityStatus implements persisting the swept status projection.
func (r *GormMemberRepository) UpdateActivityStatus(ctx context.Context, memberID uint, status domain.ActivityStatus) error {
	err := r.db.WithContext(ctx).Model(&domain.Member{}).
		Where("id = ?", memberID).
		Update("activity_status", status).Error
	if err != nil {
		return fmt.Errorf("gorm: update activity status for member %d: %w", memberID, translateError(err))
	}
	return nil
}
