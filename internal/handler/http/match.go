package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"matchroom/internal/service"
)

// MatchHandler exposes read endpoints over detected matches.
type MatchHandler struct {
	matches *service.MatchService
}

// NewMatchHandler creates a MatchHandler instance.
func NewMatchHandler(matches *service.MatchService) *MatchHandler {
	if matches == nil {
		panic("MatchService cannot be nil for MatchHandler")
	}
	return &MatchHandler{matches: matches}
}

// RoomMatches handles GET /api/rooms/:roomId/matches.
func (h *MatchHandler) RoomMatches(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	matches, err := h.matches.GetRoomMatches(c.Request.Context(), roomID, limitQuery(c, 20))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(matches))
	for i := range matches {
		participants, _ := matches[i].ParseParticipants()
		out = append(out, gin.H{
			"matchId":       matches[i].ID,
			"contentId":     matches[i].ContentID,
			"consensusType": matches[i].ConsensusType,
			"participants":  participants,
			"createdAt":     matches[i].CreatedAt,
		})
	}
	respondOK(c, gin.H{"roomId": roomID, "matches": out})
}

// MyMatches handles GET /api/me/matches.
func (h *MatchHandler) MyMatches(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	matches, err := h.matches.GetUserRecentMatches(c.Request.Context(), userID, limitQuery(c, 20))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(matches))
	for i := range matches {
		out = append(out, gin.H{
			"matchId":       matches[i].ID,
			"roomId":        matches[i].RoomID,
			"contentId":     matches[i].ContentID,
			"consensusType": matches[i].ConsensusType,
			"createdAt":     matches[i].CreatedAt,
		})
	}
	respondOK(c, gin.H{"matches": out})
}

// limitQuery parses the ?limit= query parameter with an upper cap.
func limitQuery(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}
