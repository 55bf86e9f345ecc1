package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"matchroom/internal/domain"
)

// MockVoteRepository is a testify mock of repository.VoteRepository.
type MockVoteRepository struct {
	mock.Mock
}

func (m *MockVoteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *MockVoteRepository) FindByKey(ctx context.Context, roomID, userID uint, contentID domain.ContentID) (*domain.Vote, error) {
	args := m.Called(ctx, roomID, userID, contentID)
	if vote, ok := args.Get(0).(*domain.Vote); ok {
		return vote, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVoteRepository) FindByRoomAndContent(ctx context.Context, roomID uint, contentID domain.ContentID) ([]domain.Vote, error) {
	args := m.Called(ctx, roomID, contentID)
	if votes, ok := args.Get(0).([]domain.Vote); ok {
		return votes, args.Error(1)
	}
	return nil, args.Error(1)
}
