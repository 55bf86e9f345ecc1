// Package tasks defines the asynq task types and payload constructors shared
// between the enqueueing side and the worker.
package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants.
const (
	TypeRoomEvent     = "room:event"         // fire-and-forget room notification
	TypeActivitySweep = "activity:sweep"     // periodic member classification sweep
	TypeRefreshCheck  = "room:refresh_check" // periodic list exhaustion check
)

// RoomEventPayload carries one room notification for the delivery worker.
type RoomEventPayload struct {
	RoomID     uint            `json:"roomId"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// NewRoomEventTask creates a room event task.
func NewRoomEventTask(roomID uint, event string, payload interface{}) (*asynq.Task, error) {
	var raw json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = bytes
	}
	body, err := json.Marshal(RoomEventPayload{
		RoomID:     roomID,
		Event:      event,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRoomEvent, body), nil
}

// NewActivitySweepTask creates the periodic activity sweep task. The sweep
// needs no payload: it walks every active room on its own.
func NewActivitySweepTask() *asynq.Task {
	return asynq.NewTask(TypeActivitySweep, nil)
}

// NewRefreshCheckTask creates the periodic refresh check task.
func NewRefreshCheckTask() *asynq.Task {
	return asynq.NewTask(TypeRefreshCheck, nil)
}
