// Package notify defines the fire-and-forget notification collaborator. The
// delivery transport itself (push, websocket, whatever) lives outside this
// service; the production implementation only enqueues events for it.
package notify

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"matchroom/internal/tasks"
)

// Room event names.
const (
	EventMatchFound    = "match_found"
	EventListRefreshed = "list_refreshed"
	EventRoomClosed    = "room_closed"
)

// Notifier delivers a room event to whoever is listening. Failures are the
// caller's to log, never to propagate: a missed notification must not fail
// a vote or a match.
type Notifier interface {
	Notify(ctx context.Context, roomID uint, event string, payload interface{}) error
}

// AsynqNotifier enqueues room events onto the asynq queue for the worker.
type AsynqNotifier struct {
	client *asynq.Client
}

var _ Notifier = (*AsynqNotifier)(nil)

// NewAsynqNotifier creates an AsynqNotifier instance.
func NewAsynqNotifier(client *asynq.Client) *AsynqNotifier {
	if client == nil {
		panic("asynq client cannot be nil for AsynqNotifier")
	}
	return &AsynqNotifier{client: client}
}

// Notify enqueues one room event on the critical queue.
func (n *AsynqNotifier) Notify(ctx context.Context, roomID uint, event string, payload interface{}) error {
	task, err := tasks.NewRoomEventTask(roomID, event, payload)
	if err != nil {
		return err
	}
	info, err := n.client.EnqueueContext(ctx, task, asynq.Queue("critical"))
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"event":   event,
		"task_id": info.ID,
	}).Debug("Room event enqueued")
	return nil
}
