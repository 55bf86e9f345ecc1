package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"matchroom/internal/domain"
	"matchroom/internal/notify"
	"matchroom/internal/repository"
)

const (
	inviteCodeLength   = 6
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	defaultMaxMembers  = 8
)

// RoomService owns the room lifecycle: create, join, start, close. Lifecycle
// transitions are monotonic and enforced by guarded status writes.
type RoomService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MemberRepository
	playlist   *PlaylistService
	shuffle    *ShuffleService
	notifier   notify.Notifier
}

// NewRoomService creates a RoomService instance.
func NewRoomService(
	roomRepo repository.RoomRepository,
	memberRepo repository.MemberRepository,
	playlist *PlaylistService,
	shuffle *ShuffleService,
	notifier notify.Notifier,
) *RoomService {
	if roomRepo == nil || memberRepo == nil || playlist == nil || shuffle == nil || notifier == nil {
		panic("all dependencies must be non-nil for RoomService")
	}
	return &RoomService{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		playlist:   playlist,
		shuffle:    shuffle,
		notifier:   notifier,
	}
}

// CreateRoom creates a WAITING room with a unique invite code and enrolls the
// creator as its owner.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, maxMembers int, filters domain.Filters) (*domain.Room, error) {
	logCtx := logrus.WithField("creator_id", creatorID)

	if maxMembers <= 0 {
		maxMembers = defaultMaxMembers
	}

	code, err := s.generateUniqueInviteCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("CreateRoom: failed to generate invite code")
		return nil, err
	}

	room := &domain.Room{
		CreatorID:  creatorID,
		InviteCode: code,
		Status:     domain.RoomStatusWaiting,
		MaxMembers: maxMembers,
	}
	if err := room.SetFilters(filters); err != nil {
		return nil, ErrInternalServer
	}
	if err := room.SetMasterList([]domain.ContentID{}); err != nil {
		return nil, ErrInternalServer
	}
	if err := retryStore(ctx, func() error { return s.roomRepo.Save(ctx, room) }); err != nil {
		logCtx.WithError(err).Error("CreateRoom: failed to save room")
		return nil, mapStoreError(err, ErrInternalServer)
	}

	owner := &domain.Member{
		RoomID:         room.ID,
		UserID:         creatorID,
		Role:           domain.MemberRoleOwner,
		ActivityStatus: domain.MemberActive,
		LastActivityAt: time.Now().UTC(),
	}
	if err := retryStore(ctx, func() error { return s.memberRepo.Save(ctx, owner) }); err != nil {
		logCtx.WithError(err).WithField("room_id", room.ID).Error("CreateRoom: failed to enroll owner")
		return nil, mapStoreError(err, ErrInternalServer)
	}

	logCtx.WithFields(logrus.Fields{"room_id": room.ID, "invite_code": code}).Info("Room created")
	return room, nil
}

// JoinRoom enrolls a user into a room by invite code. Joining a room the user
// is already in is idempotent and returns the existing membership.
func (s *RoomService) JoinRoom(ctx context.Context, inviteCode string, userID uint) (*domain.Room, *domain.Member, error) {
	logCtx := logrus.WithFields(logrus.Fields{"invite_code": inviteCode, "user_id": userID})

	room, err := s.roomRepo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, nil, mapStoreError(err, ErrInvalidInviteCode)
	}
	if room.IsTerminal() {
		return nil, nil, ErrRoomClosed
	}

	if existing, err := s.memberRepo.FindByRoomAndUser(ctx, room.ID, userID); err == nil {
		return room, existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, mapStoreError(err, ErrMemberNotFound)
	}

	// Fast-fail on an obviously full room before attempting the insert.
	count, err := s.memberRepo.CountByRoom(ctx, room.ID)
	if err != nil {
		return nil, nil, mapStoreError(err, ErrRoomNotFound)
	}
	if count >= int64(room.MaxMembers) {
		return nil, nil, ErrRoomFull
	}

	// The insert itself is guarded on capacity, so two joins racing for the
	// last seat cannot both land.
	member := &domain.Member{
		RoomID:         room.ID,
		UserID:         userID,
		Role:           domain.MemberRoleMember,
		ActivityStatus: domain.MemberActive,
		LastActivityAt: time.Now().UTC(),
	}
	err = retryStore(ctx, func() error {
		return s.memberRepo.CreateIfCapacity(ctx, member, room.MaxMembers)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEntry):
			// A concurrent join of the same user won; read the row it wrote.
			existing, ferr := s.memberRepo.FindByRoomAndUser(ctx, room.ID, userID)
			if ferr != nil {
				return nil, nil, mapStoreError(ferr, ErrMemberNotFound)
			}
			return room, existing, nil
		case errors.Is(err, repository.ErrConflict):
			return nil, nil, ErrRoomFull
		default:
			logCtx.WithError(err).Error("JoinRoom: failed to enroll member")
			return nil, nil, mapStoreError(err, ErrInternalServer)
		}
	}

	// The guarded insert bypasses the ORM, so read the row back for its id.
	created, err := s.memberRepo.FindByRoomAndUser(ctx, room.ID, userID)
	if err != nil {
		return nil, nil, mapStoreError(err, ErrMemberNotFound)
	}

	logCtx.WithField("room_id", room.ID).Info("Member joined room")
	return room, created, nil
}

// StartRoom flips the room WAITING -> ACTIVE, builds its master list from the
// stored filters and distributes shuffled lists to all members. The status
// flip happens first so only one concurrent starter does the expensive part.
func (s *RoomService) StartRoom(ctx context.Context, roomID uint) (*domain.Room, error) {
	logCtx := logrus.WithField("room_id", roomID)

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}

	err = s.roomRepo.UpdateStatusIf(ctx, roomID, domain.RoomStatusWaiting, domain.RoomStatusActive)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRoomNotStartable
		}
		logCtx.WithError(err).Error("StartRoom: failed to flip room status")
		return nil, mapStoreError(err, ErrRoomNotFound)
	}

	filters, err := room.ParseFilters()
	if err != nil {
		logCtx.WithError(err).Error("StartRoom: corrupt filters column")
		return nil, ErrInternalServer
	}

	ids, err := s.playlist.BuildMasterList(ctx, roomID, filters)
	if err != nil {
		return nil, err
	}
	distributed, err := s.shuffle.Distribute(ctx, roomID, ids)
	if err != nil {
		return nil, err
	}

	logCtx.WithFields(logrus.Fields{"list_size": len(ids), "distributed": distributed}).Info("Room started")

	room, err = s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	return room, nil
}

// CloseRoom moves the room into CLOSED unless it already reached a terminal
// state. Closing an already-terminal room is a no-op, not an error.
func (s *RoomService) CloseRoom(ctx context.Context, roomID uint) error {
	logCtx := logrus.WithField("room_id", roomID)

	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		return mapStoreError(err, ErrRoomNotFound)
	}
	if err := s.roomRepo.MarkClosed(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			logCtx.Debug("CloseRoom: room already terminal")
			return nil
		}
		logCtx.WithError(err).Error("CloseRoom: failed to close room")
		return mapStoreError(err, ErrRoomNotFound)
	}

	err := s.notifier.Notify(ctx, roomID, notify.EventRoomClosed, nil)
	if err != nil {
		logCtx.WithError(err).Error("CloseRoom: failed to notify close")
	}
	logCtx.Info("Room closed")
	return nil
}

// FindRoomByID returns one room.
func (s *RoomService) FindRoomByID(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	return room, nil
}

// GetRoomMembers returns the room's member rows.
func (s *RoomService) GetRoomMembers(ctx context.Context, roomID uint) ([]domain.Member, error) {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	members, err := s.memberRepo.FindByRoom(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	return members, nil
}

// generateUniqueInviteCode draws random codes until one is free. The alphabet
// drops easily-confused characters (0/O, 1/I).
func (s *RoomService) generateUniqueInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := randomInviteCode()
		if err != nil {
			return "", ErrInternalServer
		}
		exists, err := s.roomRepo.IsInviteCodeExists(ctx, code)
		if err != nil {
			return "", mapStoreError(err, ErrInternalServer)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrInternalServer
}

func randomInviteCode() (string, error) {
	code := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := range code {
		n, err := crand.Int(crand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
