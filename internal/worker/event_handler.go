package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"matchroom/internal/tasks"
)

// RoomEventHandler delivers room events. Delivery here means publishing onto
// the room's redis channel and recording the event in the room's recent-event
// list; actual client fan-out is the push gateway's job.
type RoomEventHandler struct {
	redisClient *redis.Client
}

// NewRoomEventHandler creates a RoomEventHandler instance.
func NewRoomEventHandler(redisClient *redis.Client) *RoomEventHandler {
	if redisClient == nil {
		panic("redis client cannot be nil for RoomEventHandler")
	}
	return &RoomEventHandler{redisClient: redisClient}
}

// Handle processes one room event task.
func (h *RoomEventHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload tasks.RoomEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal room event payload: %w", err)
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": payload.RoomID, "event": payload.Event})

	channel := fmt.Sprintf("mr:room:%d:events", payload.RoomID)
	if err := h.redisClient.Publish(ctx, channel, t.Payload()).Err(); err != nil {
		return fmt.Errorf("failed to publish room event: %w", err)
	}

	// Keep a short replay window so clients reconnecting after a drop can
	// catch up.
	historyKey := fmt.Sprintf("mr:room:%d:event_log", payload.RoomID)
	pipe := h.redisClient.Pipeline()
	pipe.LPush(ctx, historyKey, t.Payload())
	pipe.LTrim(ctx, historyKey, 0, 49)
	pipe.Expire(ctx, historyKey, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		logCtx.WithError(err).Warn("Failed to record event history")
	}

	logCtx.Info("Room event delivered")
	return nil
}
