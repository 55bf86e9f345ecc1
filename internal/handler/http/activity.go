package http

import (
	"github.com/gin-gonic/gin"

	"matchroom/internal/service"
)

// ActivityHandler exposes engagement tracking endpoints.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler creates an ActivityHandler instance.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	if activity == nil {
		panic("ActivityService cannot be nil for ActivityHandler")
	}
	return &ActivityHandler{activity: activity}
}

// Heartbeat handles POST /api/rooms/:roomId/heartbeat. Any authenticated call
// counts as activity and restores consensus eligibility.
func (h *ActivityHandler) Heartbeat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	if err := h.activity.Reactivate(c.Request.Context(), roomID, userID); err != nil {
		HandleServiceError(c, err)
		return
	}

	snapshot, err := h.activity.Classify(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, snapshot)
}

// Summary handles GET /api/rooms/:roomId/activity.
func (h *ActivityHandler) Summary(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	summary, err := h.activity.RoomActivitySummary(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, summary)
}
