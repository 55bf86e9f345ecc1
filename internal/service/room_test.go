package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
	"matchroom/internal/repository/mocks"
	"matchroom/internal/service"
)

type roomFixture struct {
	roomRepo   *mocks.MockRoomRepository
	memberRepo *mocks.MockMemberRepository
	gateway    *mockGateway
	cache      *mockCache
	notifier   *mockNotifier
	svc        *service.RoomService
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()
	f := &roomFixture{
		roomRepo:   new(mocks.MockRoomRepository),
		memberRepo: new(mocks.MockMemberRepository),
		gateway:    new(mockGateway),
		cache:      new(mockCache),
		notifier:   new(mockNotifier),
	}
	playlist := service.NewPlaylistService(f.roomRepo, f.gateway, f.cache)
	shuffle := service.NewShuffleService(f.roomRepo, f.memberRepo)
	f.svc = service.NewRoomService(f.roomRepo, f.memberRepo, playlist, shuffle, f.notifier)
	return f
}

func TestCreateRoomEnrollsOwner(t *testing.T) {
	f := newRoomFixture(t)

	f.roomRepo.On("IsInviteCodeExists", mock.Anything, mock.Anything).Return(false, nil)
	f.roomRepo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Room).ID = 7
		}).Return(nil)

	var owner *domain.Member
	f.memberRepo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			owner = args.Get(1).(*domain.Member)
		}).Return(nil)

	room, err := f.svc.CreateRoom(context.Background(), 101, 0, domain.Filters{Genres: []string{"comedy"}})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusWaiting, room.Status)
	assert.Len(t, room.InviteCode, 6)
	assert.Equal(t, 8, room.MaxMembers)

	require.NotNil(t, owner)
	assert.Equal(t, uint(7), owner.RoomID)
	assert.Equal(t, uint(101), owner.UserID)
	assert.Equal(t, domain.MemberRoleOwner, owner.Role)
}

func TestJoinRoomIsIdempotentForExistingMember(t *testing.T) {
	f := newRoomFixture(t)

	room := &domain.Room{ID: 7, InviteCode: "ABC234", Status: domain.RoomStatusWaiting, MaxMembers: 4}
	f.roomRepo.On("FindByInviteCode", mock.Anything, "ABC234").Return(room, nil)
	existing := &domain.Member{ID: 2, RoomID: 7, UserID: 102, Role: domain.MemberRoleMember}
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(102)).Return(existing, nil)

	gotRoom, gotMember, err := f.svc.JoinRoom(context.Background(), "ABC234", 102)
	require.NoError(t, err)
	assert.Equal(t, room.ID, gotRoom.ID)
	assert.Equal(t, existing.ID, gotMember.ID)
	f.memberRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestJoinRoomEnrollsNewMember(t *testing.T) {
	f := newRoomFixture(t)

	room := &domain.Room{ID: 7, InviteCode: "ABC234", Status: domain.RoomStatusWaiting, MaxMembers: 4}
	f.roomRepo.On("FindByInviteCode", mock.Anything, "ABC234").Return(room, nil)
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(103)).
		Return(nil, repository.ErrMemberNotFound).Once()
	f.memberRepo.On("CountByRoom", mock.Anything, uint(7)).Return(int64(1), nil)
	f.memberRepo.On("CreateIfCapacity", mock.Anything, mock.Anything, 4).Return(nil)
	created := &domain.Member{ID: 9, RoomID: 7, UserID: 103, Role: domain.MemberRoleMember}
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(103)).Return(created, nil)

	gotRoom, gotMember, err := f.svc.JoinRoom(context.Background(), "ABC234", 103)
	require.NoError(t, err)
	assert.Equal(t, uint(7), gotRoom.ID)
	assert.Equal(t, uint(9), gotMember.ID)
}

func TestJoinRoomRejectsFullRoom(t *testing.T) {
	f := newRoomFixture(t)

	room := &domain.Room{ID: 7, InviteCode: "ABC234", Status: domain.RoomStatusWaiting, MaxMembers: 2}
	f.roomRepo.On("FindByInviteCode", mock.Anything, "ABC234").Return(room, nil)
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(103)).
		Return(nil, repository.ErrMemberNotFound)
	f.memberRepo.On("CountByRoom", mock.Anything, uint(7)).Return(int64(2), nil)

	_, _, err := f.svc.JoinRoom(context.Background(), "ABC234", 103)
	assert.ErrorIs(t, err, service.ErrRoomFull)
	f.memberRepo.AssertNotCalled(t, "CreateIfCapacity", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinRoomLostCapacityRaceRejected(t *testing.T) {
	f := newRoomFixture(t)

	// The pre-check sees a free seat, but a concurrent join takes it before
	// the guarded insert lands.
	room := &domain.Room{ID: 7, InviteCode: "ABC234", Status: domain.RoomStatusWaiting, MaxMembers: 2}
	f.roomRepo.On("FindByInviteCode", mock.Anything, "ABC234").Return(room, nil)
	f.memberRepo.On("FindByRoomAndUser", mock.Anything, uint(7), uint(103)).
		Return(nil, repository.ErrMemberNotFound)
	f.memberRepo.On("CountByRoom", mock.Anything, uint(7)).Return(int64(1), nil)
	f.memberRepo.On("CreateIfCapacity", mock.Anything, mock.Anything, 2).Return(repository.ErrConflict)

	_, _, err := f.svc.JoinRoom(context.Background(), "ABC234", 103)
	assert.ErrorIs(t, err, service.ErrRoomFull)
}

func TestJoinRoomRejectsTerminalRoom(t *testing.T) {
	f := newRoomFixture(t)

	room := &domain.Room{ID: 7, InviteCode: "ABC234", Status: domain.RoomStatusClosed}
	f.roomRepo.On("FindByInviteCode", mock.Anything, "ABC234").Return(room, nil)

	_, _, err := f.svc.JoinRoom(context.Background(), "ABC234", 103)
	assert.ErrorIs(t, err, service.ErrRoomClosed)
}

func TestJoinRoomUnknownCode(t *testing.T) {
	f := newRoomFixture(t)

	f.roomRepo.On("FindByInviteCode", mock.Anything, "ZZZZZZ").Return(nil, repository.ErrRoomNotFound)

	_, _, err := f.svc.JoinRoom(context.Background(), "ZZZZZZ", 103)
	assert.ErrorIs(t, err, service.ErrInvalidInviteCode)
}

func TestStartRoomOnlyOneStarterWins(t *testing.T) {
	f := newRoomFixture(t)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusActive}
	f.roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)
	f.roomRepo.On("UpdateStatusIf", mock.Anything, uint(7), domain.RoomStatusWaiting, domain.RoomStatusActive).
		Return(repository.ErrConflict)

	_, err := f.svc.StartRoom(context.Background(), 7)
	assert.ErrorIs(t, err, service.ErrRoomNotStartable)
	f.gateway.AssertNotCalled(t, "FetchCandidates", mock.Anything, mock.Anything)
}

func TestStartRoomBuildsAndDistributes(t *testing.T) {
	f := newRoomFixture(t)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusWaiting, ListVersion: 0}
	require.NoError(t, room.SetFilters(domain.Filters{Genres: []string{"scifi"}}))
	f.roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)
	f.roomRepo.On("UpdateStatusIf", mock.Anything, uint(7), domain.RoomStatusWaiting, domain.RoomStatusActive).
		Return(nil)

	filters := domain.Filters{Genres: []string{"scifi"}}
	f.gateway.On("FetchCandidates", mock.Anything, filters).
		Return([]domain.ContentItem{{ID: "m1"}, {ID: "m2"}}, nil)
	f.cache.On("SetCandidates", mock.Anything, filters, mock.Anything).Return(nil)
	f.roomRepo.On("UpdateMasterListIf", mock.Anything, uint(7), mock.Anything, uint(0)).
		Run(func(args mock.Arguments) {
			require.NoError(t, room.SetMasterList(args.Get(2).([]domain.ContentID)))
		}).Return(nil)

	f.memberRepo.On("FindByRoom", mock.Anything, uint(7)).Return([]domain.Member{
		{ID: 1, RoomID: 7, UserID: 101},
	}, nil)
	f.memberRepo.On("UpdateShuffledListIf", mock.Anything, uint(1), mock.Anything, 0, uint(0)).Return(nil)

	got, err := f.svc.StartRoom(context.Background(), 7)
	require.NoError(t, err)
	list, perr := got.ParseMasterList()
	require.NoError(t, perr)
	assert.Len(t, list, 2)
}

func TestCloseRoomIsIdempotent(t *testing.T) {
	f := newRoomFixture(t)

	f.roomRepo.On("FindByID", mock.Anything, uint(7)).Return(&domain.Room{ID: 7, Status: domain.RoomStatusClosed}, nil)
	f.roomRepo.On("MarkClosed", mock.Anything, uint(7)).Return(repository.ErrConflict)

	err := f.svc.CloseRoom(context.Background(), 7)
	assert.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
