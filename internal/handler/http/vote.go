package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matchroom/internal/domain"
	"matchroom/internal/dto"
	"matchroom/internal/service"
)

// VoteHandler exposes voting and list consumption endpoints.
type VoteHandler struct {
	matches  *service.MatchService
	shuffle  *service.ShuffleService
	playlist *service.PlaylistService
}

// NewVoteHandler creates a VoteHandler instance.
func NewVoteHandler(matches *service.MatchService, shuffle *service.ShuffleService, playlist *service.PlaylistService) *VoteHandler {
	if matches == nil || shuffle == nil || playlist == nil {
		panic("all services must be non-nil for VoteHandler")
	}
	return &VoteHandler{matches: matches, shuffle: shuffle, playlist: playlist}
}

// Cast handles POST /api/rooms/:roomId/votes. The response carries the
// consensus evaluation the vote triggered.
func (h *VoteHandler) Cast(c *gin.Context) {
	// 1. Authentication and input.
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// 2. Record the vote and evaluate consensus in one pass.
	result, err := h.matches.CastVote(c.Request.Context(), roomID, userID, domain.ContentID(req.ContentID), req.VoteType)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, result)
}

// Queue handles GET /api/rooms/:roomId/list, the caller's remaining shuffled
// list.
func (h *VoteHandler) Queue(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	queue, index, err := h.shuffle.MemberQueue(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"roomId": roomID, "currentIndex": index, "queue": queue})
}

// Content handles GET /api/rooms/:roomId/content/:contentId, the metadata of
// one candidate.
func (h *VoteHandler) Content(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	if _, ok := roomIDParam(c); !ok {
		return
	}
	contentID := c.Param("contentId")
	if contentID == "" {
		respondError(c, http.StatusBadRequest, "invalid content id")
		return
	}

	item, err := h.playlist.ContentDetail(c.Request.Context(), domain.ContentID(contentID))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, item)
}
