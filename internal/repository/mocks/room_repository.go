// Package mocks provides testify mock implementations of the repository
// interfaces for service-layer tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"matchroom/internal/domain"
)

// MockRoomRepository is a testify mock of repository.RoomRepository.
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if room, ok := args.Get(0).(*domain.Room); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	args := m.Called(ctx, code)
	if room, ok := args.Get(0).(*domain.Room); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRoomRepository) FindByStatus(ctx context.Context, status domain.RoomStatus) ([]domain.Room, error) {
	args := m.Called(ctx, status)
	if rooms, ok := args.Get(0).([]domain.Room); ok {
		return rooms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) IsInviteCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) UpdateStatusIf(ctx context.Context, roomID uint, from, next domain.RoomStatus) error {
	args := m.Called(ctx, roomID, from, next)
	return args.Error(0)
}

func (m *MockRoomRepository) MarkMatched(ctx context.Context, roomID uint, contentID domain.ContentID) error {
	args := m.Called(ctx, roomID, contentID)
	return args.Error(0)
}

func (m *MockRoomRepository) MarkClosed(ctx context.Context, roomID uint) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *MockRoomRepository) UpdateMasterListIf(ctx context.Context, roomID uint, ids []domain.ContentID, expectedVersion uint) error {
	args := m.Called(ctx, roomID, ids, expectedVersion)
	return args.Error(0)
}
