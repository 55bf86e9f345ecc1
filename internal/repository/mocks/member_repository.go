package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"matchroom/internal/domain"
)

// MockMemberRepository is a testify mock of repository.MemberRepository.
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) FindByRoomAndUser(ctx context.Context, roomID, userID uint) (*domain.Member, error) {
	args := m.Called(ctx, roomID, userID)
	if member, ok := args.Get(0).(*domain.Member); ok {
		return member, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) FindByRoom(ctx context.Context, roomID uint) ([]domain.Member, error) {
	args := m.Called(ctx, roomID)
	if members, ok := args.Get(0).([]domain.Member); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberRepository) Save(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) CreateIfCapacity(ctx context.Context, member *domain.Member, maxMembers int) error {
	args := m.Called(ctx, member, maxMembers)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdateShuffledListIf(ctx context.Context, memberID uint, ids []domain.ContentID, currentIndex int, expectedVersion uint) error {
	args := m.Called(ctx, memberID, ids, currentIndex, expectedVersion)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdateCurrentIndexIf(ctx context.Context, memberID uint, next, expected int) error {
	args := m.Called(ctx, memberID, next, expected)
	return args.Error(0)
}

func (m *MockMemberRepository) TouchActivity(ctx context.Context, roomID, userID uint, at time.Time) error {
	args := m.Called(ctx, roomID, userID, at)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdateActivityStatus(ctx context.Context, memberID uint, status domain.ActivityStatus) error {
	args := m.Called(ctx, memberID, status)
	return args.Error(0)
}
