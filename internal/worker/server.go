// Package worker runs the asynq background processing side: room event
// delivery, the periodic activity sweep and the periodic refresh check.
package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"matchroom/internal/tasks"
)

// NewServer builds the asynq server with the service's queue weights.
func NewServer(redisAddr, redisPassword string, redisDB int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logrus.WithError(err).WithField("task_type", task.Type()).Error("Task processing failed")
			}),
		},
	)
}

// NewMux registers the task handlers.
func NewMux(events *RoomEventHandler, sweep *ActivitySweepHandler, refresh *RefreshCheckHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRoomEvent, events.Handle)
	mux.HandleFunc(tasks.TypeActivitySweep, sweep.Handle)
	mux.HandleFunc(tasks.TypeRefreshCheck, refresh.Handle)
	return mux
}
