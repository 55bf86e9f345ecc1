// Package dto defines the request and response shapes of the HTTP API.
package dto

// CreateRoomRequest creates a new matching room.
type CreateRoomRequest struct {
	MaxMembers int           `json:"maxMembers" binding:"omitempty,min=2,max=32"`
	Filters    FilterRequest `json:"filters"`
}

// FilterRequest is the candidate filter spec attached to a room.
type FilterRequest struct {
	Genres    []string `json:"genres" binding:"omitempty,max=10"`
	MinYear   int      `json:"minYear" binding:"omitempty,min=1900"`
	MaxYear   int      `json:"maxYear" binding:"omitempty,min=1900"`
	MinRating float64  `json:"minRating" binding:"omitempty,min=0,max=10"`
	Limit     int      `json:"limit" binding:"omitempty,min=1,max=200"`
}

// JoinRoomRequest joins a room by invite code.
type JoinRoomRequest struct {
	InviteCode string `json:"inviteCode" binding:"required,len=6"`
}

// VoteRequest casts a vote on one content item.
type VoteRequest struct {
	ContentID string `json:"contentId" binding:"required"`
	VoteType  string `json:"voteType" binding:"required,oneof=LIKE DISLIKE"`
}

// InjectRequest adds new content ids to a live room.
type InjectRequest struct {
	ContentIDs []string `json:"contentIds" binding:"required,min=1,max=100"`
}
