package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// GormMatchRepository is the GORM implementation of MatchRepository.
type GormMatchRepository struct {
	db *gorm.DB
}

// NewGormMatchRepository creates a GormMatchRepository instance.
func NewGormMatchRepository(db *gorm.DB) *GormMatchRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMatchRepository")
	}
	return &GormMatchRepository{db: db}
}

// CreateIfAbsent implements the exactly-once match insert. The unique index
// over (room_id, content_id) is the guard: the first concurrent insert wins,
// every later one comes back as ErrDuplicateEntry.
func (r *GormMatchRepository) CreateIfAbsent(ctx context.Context, match *domain.Match) error {
	if err := r.db.WithContext(ctx).Create(match).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create match (room %d, content %s): %w", match.RoomID, match.ContentID, translateError(err))
	}
	return nil
}

// FindByRoomAndContent implements lookup of one (room, content) match.
func (r *GormMatchRepository) FindByRoomAndContent(ctx context.Context, roomID uint, contentID domain.ContentID) (*domain.Match, error) {
	var match domain.Match
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND content_id = ?", roomID, contentID).
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMatchNotFound
		}
		return nil, fmt.Errorf("gorm: find match (room %d, content %s): %w", roomID, contentID, translateError(err))
	}
	return &match, nil
}

// FindByRoom implements the newest-first room match listing.
func (r *GormMatchRepository) FindByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Match, error) {
	if limit <= 0 {
		limit = 20
	}
	var matches []domain.Match
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at desc").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find matches for room %d: %w", roomID, translateError(err))
	}
	return matches, nil
}

// FindRecentByParticipant implements the per-user match listing. Participants
// are a JSON array of user ids, so the membership test runs in MySQL via
// JSON_CONTAINS.
func (r *GormMatchRepository) FindRecentByParticipant(ctx context.Context, userID uint, limit int) ([]domain.Match, error) {
	if limit <= 0 {
		limit = 20
	}
	var matches []domain.Match
	err := r.db.WithContext(ctx).
		Where("JSON_CONTAINS(participants, ?)", strconv.FormatUint(uint64(userID), 10)).
		Order("created_at desc").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find recent matches for user %d: %w", userID, translateError(err))
	}
	return matches, nil
}

// MarkNotified implements the guarded notifications_sent flip.
func (r *GormMatchRepository) MarkNotified(ctx context.Context, matchID uint) error {
	result := r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id = ? AND notifications_sent = ?", matchID, false).
		Update("notifications_sent", true)
	if result.Error != nil {
		return fmt.Errorf("gorm: mark match %d notified: %w", matchID, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}
