package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
	"matchroom/internal/service"
)

// ActivitySweepHandler walks every active room and refreshes the persisted
// activity status projections.
type ActivitySweepHandler struct {
	roomRepo repository.RoomRepository
	activity *service.ActivityService
}

// NewActivitySweepHandler creates an ActivitySweepHandler instance.
func NewActivitySweepHandler(roomRepo repository.RoomRepository, activity *service.ActivityService) *ActivitySweepHandler {
	if roomRepo == nil || activity == nil {
		panic("all dependencies must be non-nil for ActivitySweepHandler")
	}
	return &ActivitySweepHandler{roomRepo: roomRepo, activity: activity}
}

// Handle processes one sweep tick. Per-room failures are logged and skipped
// so one broken room never starves the rest.
func (h *ActivitySweepHandler) Handle(ctx context.Context, _ *asynq.Task) error {
	rooms, err := h.roomRepo.FindByStatus(ctx, domain.RoomStatusActive)
	if err != nil {
		return err
	}

	flipped := 0
	for i := range rooms {
		n, err := h.activity.SweepRoom(ctx, rooms[i].ID)
		if err != nil {
			logrus.WithError(err).WithField("room_id", rooms[i].ID).Warn("Activity sweep failed for room")
			continue
		}
		flipped += n
	}

	logrus.WithFields(logrus.Fields{"rooms": len(rooms), "flipped": flipped}).Info("Activity sweep completed")
	return nil
}
