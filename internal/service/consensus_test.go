package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
	"matchroom/internal/repository/mocks"
	"matchroom/internal/service"
)

type consensusFixture struct {
	matchRepo  *mocks.MockMatchRepository
	voteRepo   *mocks.MockVoteRepository
	roomRepo   *mocks.MockRoomRepository
	memberRepo *mocks.MockMemberRepository
	gateway    *mockGateway
	notifier   *mockNotifier
	svc        *service.MatchService
}

func newConsensusFixture(t *testing.T) *consensusFixture {
	t.Helper()
	f := &consensusFixture{
		matchRepo:  new(mocks.MockMatchRepository),
		voteRepo:   new(mocks.MockVoteRepository),
		roomRepo:   new(mocks.MockRoomRepository),
		memberRepo: new(mocks.MockMemberRepository),
		gateway:    new(mockGateway),
		notifier:   new(mockNotifier),
	}
	activity := service.NewActivityService(f.memberRepo, domain.DefaultActivityThresholds())
	f.svc = service.NewMatchService(f.matchRepo, f.voteRepo, f.roomRepo, f.memberRepo, activity, f.gateway, f.notifier)
	return f
}

func activeMembersFixture(userIDs ...uint) []domain.Member {
	now := time.Now().UTC()
	members := make([]domain.Member, 0, len(userIDs))
	for i, id := range userIDs {
		members = append(members, domain.Member{ID: uint(i + 1), RoomID: 7, UserID: id, LastActivityAt: now})
	}
	return members
}

func likesFixture(contentID domain.ContentID, userIDs ...uint) []domain.Vote {
	votes := make([]domain.Vote, 0, len(userIDs))
	for _, id := range userIDs {
		votes = append(votes, domain.Vote{RoomID: 7, UserID: id, ContentID: contentID, VoteType: domain.VoteLike})
	}
	return votes
}

func TestDetectMatchUnanimousLikesCreatesMatch(t *testing.T) {
	f := newConsensusFixture(t)

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(nil, repository.ErrMatchNotFound).Once()
	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(activeMembersFixture(101, 102, 103), nil)
	f.voteRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(likesFixture("m1", 101, 102, 103), nil)
	f.gateway.On("FetchContent", mock.Anything, domain.ContentID("m1")).
		Return(&domain.ContentItem{ID: "m1", Title: "The Thing"}, nil)
	f.matchRepo.On("CreateIfAbsent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Match).ID = 42
		}).Return(nil)
	f.roomRepo.On("MarkMatched", mock.Anything, uint(7), domain.ContentID("m1")).Return(nil)
	f.matchRepo.On("MarkNotified", mock.Anything, uint(42)).Return(nil)
	f.notifier.On("Notify", mock.Anything, uint(7), "match_found", mock.Anything).Return(nil)

	result, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	require.NoError(t, err)
	assert.True(t, result.HasMatch)
	assert.Equal(t, uint(42), result.MatchID)
	assert.Equal(t, domain.ConsensusGroup, result.ConsensusType)
	assert.Equal(t, []uint{101, 102, 103}, result.Participants)
	assert.Equal(t, 3, result.RequiredVotes)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDetectMatchDislikeBlocksConsensus(t *testing.T) {
	f := newConsensusFixture(t)

	votes := likesFixture("m1", 101, 102)
	votes = append(votes, domain.Vote{RoomID: 7, UserID: 103, ContentID: "m1", VoteType: domain.VoteDislike})

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(nil, repository.ErrMatchNotFound)
	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(activeMembersFixture(101, 102, 103), nil)
	f.voteRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).Return(votes, nil)

	result, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	require.NoError(t, err)
	assert.False(t, result.HasMatch)
	assert.Equal(t, 3, result.TotalVotes)
	assert.Equal(t, 3, result.RequiredVotes)
	f.matchRepo.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestDetectMatchZeroActiveMembersNeverMatches(t *testing.T) {
	f := newConsensusFixture(t)

	// Everyone is an hour past the exclusion threshold.
	stale := time.Now().UTC().Add(-2 * time.Hour)
	members := activeMembersFixture(101, 102)
	for i := range members {
		members[i].LastActivityAt = stale
	}

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(nil, repository.ErrMatchNotFound)
	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(members, nil)
	f.voteRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(likesFixture("m1", 101, 102), nil)

	result, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	require.NoError(t, err)
	assert.False(t, result.HasMatch)
	assert.Zero(t, result.RequiredVotes)
	f.matchRepo.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestDetectMatchExistingMatchShortCircuits(t *testing.T) {
	f := newConsensusFixture(t)

	existing := &domain.Match{ID: 42, RoomID: 7, ContentID: "m1", ConsensusType: domain.ConsensusPrivate,
		TotalVotes: 2, RequiredVotes: 2, NotificationsSent: true}
	require.NoError(t, existing.SetParticipants([]uint{101, 102}))
	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).Return(existing, nil)

	first, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	require.NoError(t, err)
	second, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	require.NoError(t, err)

	assert.Equal(t, first.MatchID, second.MatchID)
	assert.Equal(t, uint(42), first.MatchID)
	f.memberRepo.AssertNotCalled(t, "FindByRoom", mock.Anything, mock.Anything)
	f.matchRepo.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDetectMatchLostInsertRaceReturnsWinner(t *testing.T) {
	f := newConsensusFixture(t)

	winner := &domain.Match{ID: 9, RoomID: 7, ContentID: "m1", ConsensusType: domain.ConsensusPrivate,
		TotalVotes: 2, RequiredVotes: 2, NotificationsSent: true}
	require.NoError(t, winner.SetParticipants([]uint{101, 102}))

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(nil, repository.ErrMatchNotFound).Once()
	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(activeMembersFixture(101, 102), nil)
	f.voteRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(likesFixture("m1", 101, 102), nil)
	f.gateway.On("FetchContent", mock.Anything, domain.ContentID("m1")).
		Return(&domain.ContentItem{ID: "m1"}, nil)
	f.matchRepo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEntry)
	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).Return(winner, nil)

	result, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	require.NoError(t, err)
	assert.True(t, result.HasMatch)
	assert.Equal(t, uint(9), result.MatchID)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDetectMatchCatalogDownAbortsBeforeAnyWrite(t *testing.T) {
	f := newConsensusFixture(t)

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(nil, repository.ErrMatchNotFound)
	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(activeMembersFixture(101, 102), nil)
	f.voteRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(likesFixture("m1", 101, 102), nil)
	f.gateway.On("FetchContent", mock.Anything, domain.ContentID("m1")).
		Return(nil, assert.AnError)

	_, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	assert.ErrorIs(t, err, service.ErrCatalogUnavailable)
	f.matchRepo.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
	f.roomRepo.AssertNotCalled(t, "MarkMatched", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetectMatchRepairsUnfinishedFollowUp(t *testing.T) {
	f := newConsensusFixture(t)

	// The match exists but its creator crashed before flipping the room and
	// sending notifications.
	stuck := &domain.Match{ID: 42, RoomID: 7, ContentID: "m1", ConsensusType: domain.ConsensusPrivate,
		TotalVotes: 2, RequiredVotes: 2, NotificationsSent: false}
	require.NoError(t, stuck.SetParticipants([]uint{101, 102}))

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).Return(stuck, nil)
	f.roomRepo.On("MarkMatched", mock.Anything, uint(7), domain.ContentID("m1")).Return(nil)
	f.matchRepo.On("MarkNotified", mock.Anything, uint(42)).Return(nil)
	f.notifier.On("Notify", mock.Anything, uint(7), "match_found", mock.Anything).Return(nil)

	result, err := f.svc.DetectMatch(context.Background(), 7, "m1")
	require.NoError(t, err)
	assert.True(t, result.HasMatch)
	f.roomRepo.AssertNumberOfCalls(t, "MarkMatched", 1)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestCastVoteRejectsUnknownContent(t *testing.T) {
	f := newConsensusFixture(t)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusActive}
	require.NoError(t, room.SetMasterList([]domain.ContentID{"m1", "m2"}))
	f.roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)
	member := &domain.Member{ID: 1, RoomID: 7, UserID: 101, LastActivityAt: time.Now()}
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(101)).Return(member, nil)

	_, err := f.svc.CastVote(context.Background(), 7, 101, "zz", domain.VoteLike)
	assert.ErrorIs(t, err, service.ErrInvalidVote)
	f.voteRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCastVoteRejectsTerminalRoom(t *testing.T) {
	f := newConsensusFixture(t)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusMatched}
	f.roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)

	_, err := f.svc.CastVote(context.Background(), 7, 101, "m1", domain.VoteLike)
	assert.ErrorIs(t, err, service.ErrRoomClosed)
}

func TestCastVoteIsIdempotentOnRevote(t *testing.T) {
	f := newConsensusFixture(t)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusActive}
	require.NoError(t, room.SetMasterList([]domain.ContentID{"m1", "m2"}))
	f.roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)

	member := &domain.Member{ID: 1, RoomID: 7, UserID: 101, CurrentIndex: 0, LastActivityAt: time.Now()}
	require.NoError(t, member.SetShuffledList([]domain.ContentID{"m1", "m2"}))
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(101)).Return(member, nil)

	// The vote already exists.
	f.voteRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEntry)
	f.memberRepo.On("TouchActivity", mock.Anything, uint(7), uint(101), mock.Anything).Return(nil)
	f.memberRepo.On("UpdateCurrentIndexIf", mock.Anything, uint(1), 1, 0).Return(repository.ErrConflict)

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(nil, repository.ErrMatchNotFound)
	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(activeMembersFixture(101, 102), nil)
	f.voteRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(likesFixture("m1", 101), nil)

	result, err := f.svc.CastVote(context.Background(), 7, 101, "m1", domain.VoteLike)
	require.NoError(t, err)
	assert.False(t, result.HasMatch)
	assert.Equal(t, 1, result.TotalVotes)
	assert.Equal(t, 2, result.RequiredVotes)
}

func TestCastVoteAdvancesPointerWhenVotingHead(t *testing.T) {
	f := newConsensusFixture(t)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusActive}
	require.NoError(t, room.SetMasterList([]domain.ContentID{"m1", "m2"}))
	f.roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)

	member := &domain.Member{ID: 1, RoomID: 7, UserID: 101, CurrentIndex: 1, LastActivityAt: time.Now()}
	require.NoError(t, member.SetShuffledList([]domain.ContentID{"m2", "m1"}))
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(101)).Return(member, nil)

	f.voteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.memberRepo.On("TouchActivity", mock.Anything, uint(7), uint(101), mock.Anything).Return(nil)
	f.memberRepo.On("UpdateCurrentIndexIf", mock.Anything, uint(1), 2, 1).Return(nil)

	f.matchRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(nil, repository.ErrMatchNotFound)
	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return(activeMembersFixture(101, 102), nil)
	f.voteRepo.On("FindByRoomAndContent", mock.Anything, uint(7), domain.ContentID("m1")).
		Return(likesFixture("m1", 101), nil)

	_, err := f.svc.CastVote(context.Background(), 7, 101, "m1", domain.VoteLike)
	require.NoError(t, err)
	f.memberRepo.AssertCalled(t, "UpdateCurrentIndexIf", mock.Anything, uint(1), 2, 1)
}
