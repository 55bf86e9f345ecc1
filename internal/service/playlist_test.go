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

func TestBuildMasterListDeduplicatesCandidates(t *testing.T) {
	roomRepo := new(mocks.MockRoomRepository)
	gateway := new(mockGateway)
	cache := new(mockCache)
	svc := service.NewPlaylistService(roomRepo, gateway, cache)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusActive, ListVersion: 2}
	roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)

	items := []domain.ContentItem{
		{ID: "m1", Title: "First"},
		{ID: "m2", Title: "Second"},
		{ID: "m1", Title: "First again"},
		{ID: "", Title: "No id"},
	}
	filters := domain.Filters{Genres: []string{"horror"}}
	gateway.On("FetchCandidates", mock.Anything, filters).Return(items, nil)
	cache.On("SetCandidates", mock.Anything, filters, items).Return(nil)

	var stored []domain.ContentID
	roomRepo.On("UpdateMasterListIf", mock.Anything, uint(7), mock.Anything, uint(2)).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).([]domain.ContentID)
		}).Return(nil)

	ids, err := svc.BuildMasterList(context.Background(), 7, filters)
	require.NoError(t, err)
	assert.Equal(t, []domain.ContentID{"m1", "m2"}, ids)
	assert.Equal(t, ids, stored)
}

func TestBuildMasterListFallsBackToCachedCandidates(t *testing.T) {
	roomRepo := new(mocks.MockRoomRepository)
	gateway := new(mockGateway)
	cache := new(mockCache)
	svc := service.NewPlaylistService(roomRepo, gateway, cache)

	room := &domain.Room{ID: 7, Status: domain.RoomStatusActive}
	roomRepo.On("FindByID", mock.Anything, uint(7)).Return(room, nil)

	filters := domain.Filters{MinRating: 7}
	gateway.On("FetchCandidates", mock.Anything, filters).Return(nil, assert.AnError)
	cache.On("GetCandidates", mock.Anything, filters).
		Return([]domain.ContentItem{{ID: "m9"}}, nil)
	roomRepo.On("UpdateMasterListIf", mock.Anything, uint(7), mock.Anything, uint(0)).Return(nil)

	ids, err := svc.BuildMasterList(context.Background(), 7, filters)
	require.NoError(t, err)
	assert.Equal(t, []domain.ContentID{"m9"}, ids)
}

func TestBuildMasterListFailsWhenGatewayAndCacheDown(t *testing.T) {
	roomRepo := new(mocks.MockRoomRepository)
	gateway := new(mockGateway)
	cache := new(mockCache)
	svc := service.NewPlaylistService(roomRepo, gateway, cache)

	roomRepo.On("FindByID", mock.Anything, uint(7)).Return(&domain.Room{ID: 7}, nil)
	filters := domain.Filters{}
	gateway.On("FetchCandidates", mock.Anything, filters).Return(nil, assert.AnError)
	cache.On("GetCandidates", mock.Anything, filters).Return(nil, repository.ErrNotFound)

	_, err := svc.BuildMasterList(context.Background(), 7, filters)
	assert.ErrorIs(t, err, service.ErrCatalogUnavailable)
	roomRepo.AssertNotCalled(t, "UpdateMasterListIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContentDetailPrefersCache(t *testing.T) {
	roomRepo := new(mocks.MockRoomRepository)
	gateway := new(mockGateway)
	cache := new(mockCache)
	svc := service.NewPlaylistService(roomRepo, gateway, cache)

	cached := &domain.ContentItem{ID: "m1", Title: "Cached"}
	cache.On("GetContent", mock.Anything, domain.ContentID("m1")).Return(cached, nil)

	item, err := svc.ContentDetail(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Cached", item.Title)
	gateway.AssertNotCalled(t, "FetchContent", mock.Anything, mock.Anything)
}

func TestContentDetailFetchesAndBackfillsCache(t *testing.T) {
	roomRepo := new(mocks.MockRoomRepository)
	gateway := new(mockGateway)
	cache := new(mockCache)
	svc := service.NewPlaylistService(roomRepo, gateway, cache)

	cache.On("GetContent", mock.Anything, domain.ContentID("m1")).Return(nil, repository.ErrNotFound)
	fetched := &domain.ContentItem{ID: "m1", Title: "Fresh"}
	gateway.On("FetchContent", mock.Anything, domain.ContentID("m1")).Return(fetched, nil)
	cache.On("SetContent", mock.Anything, fetched).Return(nil)

	item, err := svc.ContentDetail(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", item.Title)
	cache.AssertCalled(t, "SetContent", mock.Anything, fetched)
}
