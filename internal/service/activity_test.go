package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matchroom/internal/domain"
	"matchroom/internal/repository/mocks"
	"matchroom/internal/service"
)

func TestActiveMembersForConsensusFiltersStale(t *testing.T) {
	memberRepo := new(mocks.MockMemberRepository)
	svc := service.NewActivityService(memberRepo, domain.DefaultActivityThresholds())

	now := time.Now().UTC()
	members := []domain.Member{
		{ID: 1, UserID: 101, LastActivityAt: now},                        // active
		{ID: 2, UserID: 102, LastActivityAt: now.Add(-20 * time.Minute)}, // warning, still counted
		{ID: 3, UserID: 103, LastActivityAt: now.Add(-45 * time.Minute)}, // inactive, excluded
		{ID: 4, UserID: 104, LastActivityAt: now.Add(-2 * time.Hour)},    // excluded
	}
	memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(members, nil)

	active, err := svc.ActiveMembersForConsensus(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, uint(101), active[0].UserID)
	assert.Equal(t, uint(102), active[1].UserID)
}

func TestReactivateRestoresConsensusEligibility(t *testing.T) {
	memberRepo := new(mocks.MockMemberRepository)
	svc := service.NewActivityService(memberRepo, domain.DefaultActivityThresholds())

	memberRepo.On("TouchActivity", mock.Anything, uint(7), uint(103), mock.Anything).Return(nil)
	require.NoError(t, svc.Reactivate(context.Background(), 7, 103))

	// After the touch the member classifies as active again.
	memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(103)).
		Return(&domain.Member{ID: 3, UserID: 103, LastActivityAt: time.Now().UTC()}, nil)
	snapshot, err := svc.Classify(context.Background(), 7, 103)
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityLevelActive, snapshot.Level)
	assert.False(t, snapshot.ShouldExcludeFromVoting)
}

func TestSweepRoomProjectsOnlyChangedStatuses(t *testing.T) {
	memberRepo := new(mocks.MockMemberRepository)
	svc := service.NewActivityService(memberRepo, domain.DefaultActivityThresholds())

	now := time.Now().UTC()
	members := []domain.Member{
		{ID: 1, UserID: 101, ActivityStatus: domain.MemberActive, LastActivityAt: now},
		{ID: 2, UserID: 102, ActivityStatus: domain.MemberActive, LastActivityAt: now.Add(-45 * time.Minute)},
		{ID: 3, UserID: 103, ActivityStatus: domain.MemberInactive, LastActivityAt: now.Add(-2 * time.Hour)},
	}
	memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(members, nil)
	memberRepo.On("UpdateActivityStatus", mock.Anything, uint(2), domain.MemberInactive).Return(nil)

	flipped, err := svc.SweepRoom(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)
	memberRepo.AssertNotCalled(t, "UpdateActivityStatus", mock.Anything, uint(1), mock.Anything)
	memberRepo.AssertNotCalled(t, "UpdateActivityStatus", mock.Anything, uint(3), mock.Anything)
}

func TestRoomActivitySummaryAggregates(t *testing.T) {
	memberRepo := new(mocks.MockMemberRepository)
	svc := service.NewActivityService(memberRepo, domain.DefaultActivityThresholds())

	now := time.Now().UTC()
	members := []domain.Member{
		{ID: 1, UserID: 101, LastActivityAt: now},
		{ID: 2, UserID: 102, LastActivityAt: now.Add(-20 * time.Minute)},
		{ID: 3, UserID: 103, LastActivityAt: now.Add(-90 * time.Minute)},
	}
	memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(members, nil)

	summary, err := svc.RoomActivitySummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts[domain.ActivityLevelActive])
	assert.Equal(t, 1, summary.Counts[domain.ActivityLevelWarning])
	assert.Equal(t, 1, summary.Counts[domain.ActivityLevelExcluded])
	assert.Equal(t, uint(103), summary.MostInactiveUserID)
	assert.Equal(t, 90, summary.MostInactiveMinutes)
	assert.InDelta(t, 55.0, summary.AvgInactiveMinutes, 0.01)
}
