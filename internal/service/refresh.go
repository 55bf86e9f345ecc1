package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"matchroom/internal/domain"
	"matchroom/internal/notify"
	"matchroom/internal/repository"
)

// Refresh fires when the average voting progress of the room's active,
// list-holding members reaches this fraction of their lists.
const defaultRefreshThreshold = 0.9

// RefreshService watches rooms for near-exhaustion and rebuilds their lists
// with relaxed filters before members run out of candidates.
type RefreshService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MemberRepository
	playlist   *PlaylistService
	shuffle    *ShuffleService
	activity   *ActivityService
	notifier   notify.Notifier
	threshold  float64
}

// NewRefreshService creates a RefreshService instance. A threshold outside
// (0, 1] falls back to the default.
func NewRefreshService(
	roomRepo repository.RoomRepository,
	memberRepo repository.MemberRepository,
	playlist *PlaylistService,
	shuffle *ShuffleService,
	activity *ActivityService,
	notifier notify.Notifier,
	threshold float64,
) *RefreshService {
	if roomRepo == nil || memberRepo == nil || playlist == nil || shuffle == nil ||
		activity == nil || notifier == nil {
		panic("all dependencies must be non-nil for RefreshService")
	}
	if threshold <= 0 || threshold > 1 {
		threshold = defaultRefreshThreshold
	}
	return &RefreshService{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		playlist:   playlist,
		shuffle:    shuffle,
		activity:   activity,
		notifier:   notifier,
		threshold:  threshold,
	}
}

// RefreshStats reports how far through their lists a room's active members
// are, and whether that crosses the refresh trigger.
type RefreshStats struct {
	RoomID          uint    `json:"roomId"`
	AverageProgress float64 `json:"averageProgress"`
	Threshold       float64 `json:"threshold"`
	MembersCounted  int     `json:"membersCounted"`
	NeedsRefresh    bool    `json:"needsRefresh"`
}

// CheckAndRefreshIfNeeded evaluates the trigger for one room and, when it
// fires, rebuilds the master list with relaxed filters and redistributes.
// Returns the stats and whether a refresh actually ran.
func (s *RefreshService) CheckAndRefreshIfNeeded(ctx context.Context, roomID uint) (*RefreshStats, bool, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, false, mapStoreError(err, ErrRoomNotFound)
	}
	if room.Status != domain.RoomStatusActive {
		return nil, false, ErrRoomNotActive
	}

	stats, err := s.computeStats(ctx, roomID)
	if err != nil {
		return nil, false, err
	}
	if !stats.NeedsRefresh {
		return stats, false, nil
	}

	if err := s.refresh(ctx, room); err != nil {
		return stats, false, err
	}
	return stats, true, nil
}

// ManualRefresh rebuilds and redistributes regardless of progress. Used by
// the room owner when the current candidate set is a dud.
func (s *RefreshService) ManualRefresh(ctx context.Context, roomID uint) error {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return mapStoreError(err, ErrRoomNotFound)
	}
	if room.Status != domain.RoomStatusActive {
		return ErrRoomNotActive
	}
	return s.refresh(ctx, room)
}

// GetRoomRefreshStats returns the current trigger evaluation without acting
// on it. Read-only.
func (s *RefreshService) GetRoomRefreshStats(ctx context.Context, roomID uint) (*RefreshStats, error) {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	return s.computeStats(ctx, roomID)
}

// computeStats averages Progress() over the active members that hold a list.
// Members without a list (joined mid-build) contribute nothing; a room where
// nobody holds a list never triggers.
func (s *RefreshService) computeStats(ctx context.Context, roomID uint) (*RefreshStats, error) {
	active, err := s.activity.ActiveMembersForConsensus(ctx, roomID)
	if err != nil {
		return nil, err
	}

	total := 0.0
	counted := 0
	for _, member := range active {
		if !member.HasList() {
			continue
		}
		total += member.Progress()
		counted++
	}

	stats := &RefreshStats{
		RoomID:         roomID,
		Threshold:      s.threshold,
		MembersCounted: counted,
	}
	if counted > 0 {
		stats.AverageProgress = total / float64(counted)
		stats.NeedsRefresh = stats.AverageProgress >= s.threshold
	}
	return stats, nil
}

// refresh rebuilds the master list with relaxed filters and hands every
// member a fresh shuffled copy. The list-refreshed event tells clients to
// drop their local queue.
func (s *RefreshService) refresh(ctx context.Context, room *domain.Room) error {
	logCtx := logrus.WithField("room_id", room.ID)

	filters, err := room.ParseFilters()
	if err != nil {
		logCtx.WithError(err).Error("refresh: corrupt filters column")
		return ErrInternalServer
	}
	relaxed := filters.Relaxed()

	ids, err := s.playlist.BuildMasterList(ctx, room.ID, relaxed)
	if err != nil {
		return err
	}
	distributed, err := s.shuffle.Regenerate(ctx, room.ID)
	if err != nil {
		return err
	}

	logCtx.WithFields(logrus.Fields{
		"list_size":   len(ids),
		"distributed": distributed,
	}).Info("Room list refreshed")

	err = s.notifier.Notify(ctx, room.ID, notify.EventListRefreshed, map[string]interface{}{
		"listSize": len(ids),
	})
	if err != nil {
		logCtx.WithError(err).Error("refresh: failed to notify list refresh")
	}
	return nil
}
