package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Consensus types, by participant count.
const (
	ConsensusPrivate = "private" // exactly two participants
	ConsensusGroup   = "group"   // three or more
)

// ConsensusTypeFor returns the consensus type for a participant count.
func ConsensusTypeFor(participants int) string {
	if participants > 2 {
		return ConsensusGroup
	}
	return ConsensusPrivate
}

// Match records a unanimous LIKE agreement on one content item. The unique
// index over (room_id, content_id) makes its insert the linearization point:
// exactly one concurrent detection can create it, everyone else reads it back.
type Match struct {
	ID                uint      `gorm:"primaryKey"`
	RoomID            uint      `gorm:"uniqueIndex:idx_room_content;not null;index"`
	ContentID         ContentID `gorm:"uniqueIndex:idx_room_content;size:191;not null"`
	Participants      string    `gorm:"type:text;not null"` // JSON array of user ids
	ConsensusType     string    `gorm:"size:20;not null"`
	TotalVotes        int       `gorm:"not null"`
	RequiredVotes     int       `gorm:"not null"`
	NotificationsSent bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index"`
}

// ParseParticipants decodes the Participants column into a user id slice.
func (m *Match) ParseParticipants() ([]uint, error) {
	if m.Participants == "" || m.Participants == "null" {
		return []uint{}, nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(m.Participants), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants for match %d: %w", m.ID, err)
	}
	return ids, nil
}

// SetParticipants serializes the user id slice into the Participants column.
func (m *Match) SetParticipants(ids []uint) error {
	bytes, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}
	m.Participants = string(bytes)
	return nil
}
