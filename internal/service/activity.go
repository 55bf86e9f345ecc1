package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// ActivityService tracks per-member engagement. Classification is a pure
// recomputation from last_activity_at on every call, so any number of
// concurrent callers agree on the same answer; the only mutable state is the
// timestamp itself.
type ActivityService struct {
	memberRepo repository.MemberRepository
	thresholds domain.ActivityThresholds
}

// NewActivityService creates an ActivityService instance.
func NewActivityService(memberRepo repository.MemberRepository, thresholds domain.ActivityThresholds) *ActivityService {
	if memberRepo == nil {
		panic("MemberRepository cannot be nil for ActivityService")
	}
	if thresholds.Warning <= 0 || thresholds.Inactive <= thresholds.Warning || thresholds.Exclusion <= thresholds.Inactive {
		thresholds = domain.DefaultActivityThresholds()
	}
	return &ActivityService{memberRepo: memberRepo, thresholds: thresholds}
}

// Thresholds returns the configured classification cut-offs.
func (s *ActivityService) Thresholds() domain.ActivityThresholds {
	return s.thresholds
}

// ActivitySummary is the room-level engagement overview.
type ActivitySummary struct {
	RoomID              uint                         `json:"roomId"`
	Counts              map[domain.ActivityLevel]int `json:"counts"`
	MostInactiveUserID  uint                         `json:"mostInactiveUserId,omitempty"`
	MostInactiveMinutes int                          `json:"mostInactiveMinutes"`
	AvgInactiveMinutes  float64                      `json:"avgInactiveMinutes"`
}

// RecordActivity idempotently resets a member's last activity to now.
func (s *ActivityService) RecordActivity(ctx context.Context, roomID, userID uint) error {
	err := s.memberRepo.TouchActivity(ctx, roomID, userID, time.Now().UTC())
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).
			Warn("Failed to record member activity")
		return mapStoreError(err, ErrMemberNotFound)
	}
	return nil
}

// Reactivate is explicit activity recording for a returning member. The reset
// immediately restores consensus eligibility: the next classification sees a
// fresh timestamp.
func (s *ActivityService) Reactivate(ctx context.Context, roomID, userID uint) error {
	if err := s.RecordActivity(ctx, roomID, userID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Info("Member reactivated")
	return nil
}

// Classify returns the member's current derived activity snapshot.
func (s *ActivityService) Classify(ctx context.Context, roomID, userID uint) (*domain.ActivitySnapshot, error) {
	member, err := s.memberRepo.FindByRoomAndUser(ctx, roomID, userID)
	if err != nil {
		return nil, mapStoreError(err, ErrMemberNotFound)
	}
	snapshot := domain.ClassifyActivity(member.LastActivityAt, time.Now().UTC(), s.thresholds)
	return &snapshot, nil
}

// ActiveMembersForConsensus returns the members whose level is below
// INACTIVE. This is the population every unanimity check runs over.
func (s *ActivityService) ActiveMembersForConsensus(ctx context.Context, roomID uint) ([]domain.Member, error) {
	members, err := s.memberRepo.FindByRoom(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	now := time.Now().UTC()
	active := make([]domain.Member, 0, len(members))
	for _, member := range members {
		snapshot := domain.ClassifyActivity(member.LastActivityAt, now, s.thresholds)
		if !snapshot.ShouldExcludeFromVoting {
			active = append(active, member)
		}
	}
	return active, nil
}

// SweepRoom refreshes the persisted activity status projection for every
// member of the room and returns how many rows actually flipped. The
// projection exists for listing endpoints; consensus never reads it.
func (s *ActivityService) SweepRoom(ctx context.Context, roomID uint) (int, error) {
	members, err := s.memberRepo.FindByRoom(ctx, roomID)
	if err != nil {
		return 0, mapStoreError(err, ErrRoomNotFound)
	}

	now := time.Now().UTC()
	flipped := 0
	for i := range members {
		member := members[i]
		snapshot := domain.ClassifyActivity(member.LastActivityAt, now, s.thresholds)
		if snapshot.Status == member.ActivityStatus {
			continue
		}
		if err := s.memberRepo.UpdateActivityStatus(ctx, member.ID, snapshot.Status); err != nil {
			logrus.WithError(err).WithField("member_id", member.ID).Warn("Failed to project activity status")
			continue
		}
		flipped++
	}
	return flipped, nil
}

// RoomActivitySummary aggregates per-level counts, the most inactive member
// and the average inactivity among non-active members.
func (s *ActivityService) RoomActivitySummary(ctx context.Context, roomID uint) (*ActivitySummary, error) {
	members, err := s.memberRepo.FindByRoom(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}

	summary := &ActivitySummary{
		RoomID: roomID,
		Counts: map[domain.ActivityLevel]int{
			domain.ActivityLevelActive:   0,
			domain.ActivityLevelWarning:  0,
			domain.ActivityLevelInactive: 0,
			domain.ActivityLevelExcluded: 0,
		},
	}

	now := time.Now().UTC()
	inactiveTotal := 0
	inactiveCount := 0
	for _, member := range members {
		snapshot := domain.ClassifyActivity(member.LastActivityAt, now, s.thresholds)
		summary.Counts[snapshot.Level]++
		if snapshot.Level != domain.ActivityLevelActive {
			inactiveTotal += snapshot.MinutesSinceActivity
			inactiveCount++
		}
		if snapshot.MinutesSinceActivity > summary.MostInactiveMinutes {
			summary.MostInactiveMinutes = snapshot.MinutesSinceActivity
			summary.MostInactiveUserID = member.UserID
		}
	}
	if inactiveCount > 0 {
		summary.AvgInactiveMinutes = float64(inactiveTotal) / float64(inactiveCount)
	}
	return summary, nil
}
