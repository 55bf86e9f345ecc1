package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"matchroom/internal/domain"
)

// MockMatchRepository is a testify mock of repository.MatchRepository.
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) CreateIfAbsent(ctx context.Context, match *domain.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) FindByRoomAndContent(ctx context.Context, roomID uint, contentID domain.ContentID) (*domain.Match, error) {
	args := m.Called(ctx, roomID, contentID)
	if match, ok := args.Get(0).(*domain.Match); ok {
		return match, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMatchRepository) FindByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Match, error) {
	args := m.Called(ctx, roomID, limit)
	if matches, ok := args.Get(0).([]domain.Match); ok {
		return matches, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMatchRepository) FindRecentByParticipant(ctx context.Context, userID uint, limit int) ([]domain.Match, error) {
	args := m.Called(ctx, userID, limit)
	if matches, ok := args.Get(0).([]domain.Match); ok {
		return matches, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMatchRepository) MarkNotified(ctx context.Context, matchID uint) error {
	args := m.Called(ctx, matchID)
	return args.Error(0)
}
