package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MemberRole is the role of a member inside a room. Permission enforcement
// lives in an external collaborator; the role is stored for it, not acted on.
type MemberRole = string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleMember MemberRole = "MEMBER"
)

// ActivityStatus is the persisted engagement flag on a member row. It is a
// cached projection of ClassifyActivity, refreshed by the periodic sweep;
// consensus always recomputes from LastActivityAt instead of trusting it.
type ActivityStatus = string

const (
	MemberActive   ActivityStatus = "ACTIVE"
	MemberInactive ActivityStatus = "INACTIVE"
)

// Member is one (room, user) participation. Its ShuffledList is an
// independent permutation of the room's Master List and CurrentIndex points
// at the next unseen item in it.
type Member struct {
	ID             uint           `gorm:"primaryKey"`
	RoomID         uint           `gorm:"uniqueIndex:idx_room_user;not null"`
	UserID         uint           `gorm:"uniqueIndex:idx_room_user;not null;index"`
	Role           MemberRole     `gorm:"size:20;not null;default:MEMBER"`
	ActivityStatus ActivityStatus `gorm:"size:20;not null;default:ACTIVE"`
	ShuffledList   string         `gorm:"type:text"`          // JSON array of content ids
	ListVersion    uint           `gorm:"not null;default:0"` // guards conditional list writes
	CurrentIndex   int            `gorm:"not null;default:0"`
	LastActivityAt time.Time      `gorm:"index;not null"`
	JoinedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

// HasList reports whether a shuffled list was ever distributed to the member.
// A member who joined before the first distribute has none; callers must
// treat that as "no content yet", not an error.
func (m *Member) HasList() bool {
	return m.ShuffledList != "" && m.ShuffledList != "null" && m.ShuffledList != "[]"
}

// ParseShuffledList decodes the ShuffledList column into an ordered id slice.
func (m *Member) ParseShuffledList() ([]ContentID, error) {
	if !m.HasList() {
		return []ContentID{}, nil
	}
	var ids []ContentID
	if err := json.Unmarshal([]byte(m.ShuffledList), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shuffled list for member %d: %w", m.ID, err)
	}
	return ids, nil
}

// SetShuffledList serializes the ordered id slice into the ShuffledList column.
func (m *Member) SetShuffledList(ids []ContentID) error {
	bytes, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal shuffled list: %w", err)
	}
	m.ShuffledList = string(bytes)
	return nil
}

// Progress returns how far through the shuffled list the member is, in [0,1].
// Members without a list report zero progress.
func (m *Member) Progress() float64 {
	ids, err := m.ParseShuffledList()
	if err != nil || len(ids) == 0 {
		return 0
	}
	p := float64(m.CurrentIndex) / float64(len(ids))
	if p > 1 {
		p = 1
	}
	return p
}
