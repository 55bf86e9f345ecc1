package domain

import "time"

// VoteType is a member's reaction to one content item.
type VoteType = string

const (
	VoteLike    VoteType = "LIKE"
	VoteDislike VoteType = "DISLIKE"
)

// IsValidVoteType reports whether t is one of the accepted vote types.
func IsValidVoteType(t string) bool {
	return t == VoteLike || t == VoteDislike
}

// Vote is one member's reaction to one content item in one room. The table is
// append-only: the unique index over (room_id, user_id, content_id) enforces
// at most one vote per key, and rows are never updated once written.
type Vote struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"uniqueIndex:idx_room_user_content;not null;index"`
	UserID    uint      `gorm:"uniqueIndex:idx_room_user_content;not null"`
	ContentID ContentID `gorm:"uniqueIndex:idx_room_user_content;size:191;not null"`
	VoteType  VoteType  `gorm:"size:10;not null"`
	VotedAt   time.Time `gorm:"index;not null"`
}
