package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// GormVoteRepository is the GORM implementation of VoteRepository.
type GormVoteRepository struct {
	db *gorm.DB
}

// NewGormVoteRepository creates a GormVoteRepository instance.
func NewGormVoteRepository(db *gorm.DB) *GormVoteRepository {
	if db == nil {
		panic("database connection cannot be nil for GormVoteRepository")
	}
	return &GormVoteRepository{db: db}
}

// Create implements the append-only vote insert. The unique key index turns a
// re-vote into ErrDuplicateEntry instead of a second row.
func (r *GormVoteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create vote (room %d, user %d, content %s): %w",
			vote.RoomID, vote.UserID, vote.ContentID, translateError(err))
	}
	return nil
}

// FindByKey implements lookup of one (room, user, content) vote.
func (r *GormVoteRepository) FindByKey(ctx context.Context, roomID, userID uint, contentID domain.ContentID) (*domain.Vote, error) {
	var vote domain.Vote
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ? AND content_id = ?", roomID, userID, contentID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrVoteNotFound
		}
		return nil, fmt.Errorf("gorm: find vote (room %d, user %d, content %s): %w", roomID, userID, contentID, translateError(err))
	}
	return &vote, nil
}

// FindByRoomAndContent implements the per-item vote snapshot read.
func (r *GormVoteRepository) FindByRoomAndContent(ctx context.Context, roomID uint, contentID domain.ContentID) ([]domain.Vote, error) {
	var votes []domain.Vote
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND content_id = ?", roomID, contentID).
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find votes (room %d, content %s): %w", roomID, contentID, translateError(err))
	}
	return votes, nil
}
