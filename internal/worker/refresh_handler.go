package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
	"matchroom/internal/service"
)

// RefreshCheckHandler walks every active room and refreshes the ones whose
// members are about to exhaust their lists.
type RefreshCheckHandler struct {
	roomRepo repository.RoomRepository
	refresh  *service.RefreshService
}

// NewRefreshCheckHandler creates a RefreshCheckHandler instance.
func NewRefreshCheckHandler(roomRepo repository.RoomRepository, refresh *service.RefreshService) *RefreshCheckHandler {
	if roomRepo == nil || refresh == nil {
		panic("all dependencies must be non-nil for RefreshCheckHandler")
	}
	return &RefreshCheckHandler{roomRepo: roomRepo, refresh: refresh}
}

// Handle processes one refresh check tick.
func (h *RefreshCheckHandler) Handle(ctx context.Context, _ *asynq.Task) error {
	rooms, err := h.roomRepo.FindByStatus(ctx, domain.RoomStatusActive)
	if err != nil {
		return err
	}

	refreshed := 0
	for i := range rooms {
		_, did, err := h.refresh.CheckAndRefreshIfNeeded(ctx, rooms[i].ID)
		if err != nil {
			logrus.WithError(err).WithField("room_id", rooms[i].ID).Warn("Refresh check failed for room")
			continue
		}
		if did {
			refreshed++
		}
	}

	logrus.WithFields(logrus.Fields{"rooms": len(rooms), "refreshed": refreshed}).Info("Refresh check completed")
	return nil
}
