package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matchroom/internal/domain"
	"matchroom/internal/dto"
	"matchroom/internal/service"
)

// RoomHandler exposes the room lifecycle and list maintenance endpoints.
type RoomHandler struct {
	rooms   *service.RoomService
	shuffle *service.ShuffleService
}

// NewRoomHandler creates a RoomHandler instance.
func NewRoomHandler(rooms *service.RoomService, shuffle *service.ShuffleService) *RoomHandler {
	if rooms == nil || shuffle == nil {
		panic("all services must be non-nil for RoomHandler")
	}
	return &RoomHandler{rooms: rooms, shuffle: shuffle}
}

// Create handles POST /api/rooms.
func (h *RoomHandler) Create(c *gin.Context) {
	// 1. Authentication and input.
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// 2. Create the room with the creator enrolled as owner.
	filters := domain.Filters{
		Genres:    req.Filters.Genres,
		MinYear:   req.Filters.MinYear,
		MaxYear:   req.Filters.MaxYear,
		MinRating: req.Filters.MinRating,
		Limit:     req.Filters.Limit,
	}
	room, err := h.rooms.CreateRoom(c.Request.Context(), userID, req.MaxMembers, filters)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	respondCreated(c, gin.H{
		"roomId":     room.ID,
		"inviteCode": room.InviteCode,
		"status":     room.Status,
		"maxMembers": room.MaxMembers,
	})
}

// Join handles POST /api/rooms/join.
func (h *RoomHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	room, member, err := h.rooms.JoinRoom(c.Request.Context(), req.InviteCode, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"roomId": room.ID,
		"status": room.Status,
		"role":   member.Role,
	})
}

// Get handles GET /api/rooms/:roomId.
func (h *RoomHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	room, err := h.rooms.FindRoomByID(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	masterList, err := room.ParseMasterList()
	if err != nil {
		HandleServiceError(c, service.ErrInternalServer)
		return
	}

	respondOK(c, gin.H{
		"roomId":          room.ID,
		"status":          room.Status,
		"inviteCode":      room.InviteCode,
		"maxMembers":      room.MaxMembers,
		"listSize":        len(masterList),
		"resultContentId": room.ResultContentID,
		"createdAt":       room.CreatedAt,
	})
}

// Members handles GET /api/rooms/:roomId/members.
func (h *RoomHandler) Members(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	members, err := h.rooms.GetRoomMembers(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(members))
	for i := range members {
		out = append(out, gin.H{
			"userId":         members[i].UserID,
			"role":           members[i].Role,
			"activityStatus": members[i].ActivityStatus,
			"progress":       members[i].Progress(),
			"joinedAt":       members[i].JoinedAt,
		})
	}
	respondOK(c, gin.H{"roomId": roomID, "members": out})
}

// Start handles POST /api/rooms/:roomId/start.
func (h *RoomHandler) Start(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	room, err := h.rooms.StartRoom(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	masterList, _ := room.ParseMasterList()
	respondOK(c, gin.H{"roomId": room.ID, "status": room.Status, "listSize": len(masterList)})
}

// Close handles POST /api/rooms/:roomId/close.
func (h *RoomHandler) Close(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	if err := h.rooms.CloseRoom(c.Request.Context(), roomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"roomId": roomID, "status": domain.RoomStatusClosed})
}

// Inject handles POST /api/rooms/:roomId/content, the live content injection.
func (h *RoomHandler) Inject(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req dto.InjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ids := make([]domain.ContentID, 0, len(req.ContentIDs))
	for _, id := range req.ContentIDs {
		ids = append(ids, domain.ContentID(id))
	}
	injected, err := h.shuffle.Inject(c.Request.Context(), roomID, ids)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"roomId": roomID, "injected": injected})
}

// Consistency handles GET /api/rooms/:roomId/consistency, the diagnostic
// check that every member list is still a permutation of the master list.
func (h *RoomHandler) Consistency(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	report, err := h.shuffle.VerifyConsistency(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondOK(c, report)
}
