package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"matchroom/internal/catalog"
	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// PlaylistService is the master list builder: it turns a filter spec into the
// room's canonical ordered candidate list through the catalog gateway,
// falling back to the external cache when the gateway is down.
type PlaylistService struct {
	roomRepo repository.RoomRepository
	gateway  catalog.Gateway
	cache    catalog.Cache
}

// NewPlaylistService creates a PlaylistService instance.
func NewPlaylistService(roomRepo repository.RoomRepository, gateway catalog.Gateway, cache catalog.Cache) *PlaylistService {
	if roomRepo == nil || gateway == nil || cache == nil {
		panic("all dependencies must be non-nil for PlaylistService")
	}
	return &PlaylistService{roomRepo: roomRepo, gateway: gateway, cache: cache}
}

// BuildMasterList fetches candidates for the filters and replaces the room's
// master list with the deduplicated id sequence. Returns the new list.
func (s *PlaylistService) BuildMasterList(ctx context.Context, roomID uint, filters domain.Filters) ([]domain.ContentID, error) {
	logCtx := logrus.WithField("room_id", roomID)

	// 1. The room must exist before anything is fetched on its behalf.
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}

	// 2. Gateway first, cached candidate set as the fallback.
	items, err := s.fetchCandidates(ctx, filters, logCtx)
	if err != nil {
		return nil, err
	}

	// 3. Candidate ids must be unique inside a master list.
	ids := make([]domain.ContentID, 0, len(items))
	seen := make(map[domain.ContentID]bool, len(items))
	for _, item := range items {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)
	}

	// 4. Replace the stored list under its version guard. A lost race means a
	// concurrent build or injection; retry on top of the fresh version.
	for attempt := 0; ; attempt++ {
		room, rerr := s.roomRepo.FindByID(ctx, roomID)
		if rerr != nil {
			return nil, mapStoreError(rerr, ErrRoomNotFound)
		}
		werr := s.roomRepo.UpdateMasterListIf(ctx, roomID, ids, room.ListVersion)
		if werr == nil {
			break
		}
		if errors.Is(werr, repository.ErrConflict) && attempt < casRetryLimit {
			continue
		}
		logCtx.WithError(werr).Error("BuildMasterList: failed to store master list")
		return nil, mapStoreError(werr, ErrRoomNotFound)
	}

	logCtx.WithField("list_size", len(ids)).Info("Master list built")
	return ids, nil
}

// ContentDetail returns metadata for one content id, cache first.
func (s *PlaylistService) ContentDetail(ctx context.Context, id domain.ContentID) (*domain.ContentItem, error) {
	if item, err := s.cache.GetContent(ctx, id); err == nil {
		return item, nil
	}
	item, err := s.gateway.FetchContent(ctx, id)
	if err != nil {
		return nil, ErrCatalogUnavailable
	}
	if cerr := s.cache.SetContent(ctx, item); cerr != nil {
		logrus.WithError(cerr).WithField("content_id", id).Warn("Failed to cache content detail")
	}
	return item, nil
}

// fetchCandidates tries the gateway and falls back to the cached candidate
// set; a gateway success refreshes the cache for the next outage.
func (s *PlaylistService) fetchCandidates(ctx context.Context, filters domain.Filters, logCtx *logrus.Entry) ([]domain.ContentItem, error) {
	items, err := s.gateway.FetchCandidates(ctx, filters)
	if err == nil {
		if cerr := s.cache.SetCandidates(ctx, filters, items); cerr != nil {
			logCtx.WithError(cerr).Warn("Failed to refresh candidate cache")
		}
		return items, nil
	}

	logCtx.WithError(err).Warn("Catalog gateway failed, falling back to cached candidates")
	cached, cerr := s.cache.GetCandidates(ctx, filters)
	if cerr != nil {
		logCtx.WithError(cerr).Error("No cached candidate set available")
		return nil, ErrCatalogUnavailable
	}
	return cached, nil
}
