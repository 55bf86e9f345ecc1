package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"matchroom/internal/domain"
)

// mockGateway is a testify mock of catalog.Gateway.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) FetchCandidates(ctx context.Context, filters domain.Filters) ([]domain.ContentItem, error) {
	args := m.Called(ctx, filters)
	if items, ok := args.Get(0).([]domain.ContentItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) FetchContent(ctx context.Context, id domain.ContentID) (*domain.ContentItem, error) {
	args := m.Called(ctx, id)
	if item, ok := args.Get(0).(*domain.ContentItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

// mockCache is a testify mock of catalog.Cache.
type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetCandidates(ctx context.Context, filters domain.Filters) ([]domain.ContentItem, error) {
	args := m.Called(ctx, filters)
	if items, ok := args.Get(0).([]domain.ContentItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCache) SetCandidates(ctx context.Context, filters domain.Filters, items []domain.ContentItem) error {
	args := m.Called(ctx, filters, items)
	return args.Error(0)
}

func (m *mockCache) GetContent(ctx context.Context, id domain.ContentID) (*domain.ContentItem, error) {
	args := m.Called(ctx, id)
	if item, ok := args.Get(0).(*domain.ContentItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCache) SetContent(ctx context.Context, item *domain.ContentItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// mockNotifier is a testify mock of notify.Notifier.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, roomID uint, event string, payload interface{}) error {
	args := m.Called(ctx, roomID, event, payload)
	return args.Error(0)
}
