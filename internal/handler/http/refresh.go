package http

import (
	"github.com/gin-gonic/gin"

	"matchroom/internal/service"
)

// RefreshHandler exposes the list refresh endpoints.
type RefreshHandler struct {
	refresh *service.RefreshService
}

// NewRefreshHandler creates a RefreshHandler instance.
func NewRefreshHandler(refresh *service.RefreshService) *RefreshHandler {
	if refresh == nil {
		panic("RefreshService cannot be nil for RefreshHandler")
	}
	return &RefreshHandler{refresh: refresh}
}

// Stats handles GET /api/rooms/:roomId/refresh, the current trigger
// evaluation.
func (h *RefreshHandler) Stats(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	stats, err := h.refresh.GetRoomRefreshStats(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, stats)
}

// Trigger handles POST /api/rooms/:roomId/refresh, the owner-initiated
// rebuild with relaxed filters.
func (h *RefreshHandler) Trigger(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	if err := h.refresh.ManualRefresh(c.Request.Context(), roomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"roomId": roomID, "refreshed": true})
}
