// Package domain defines the persisted entities and pure rules of the
// matching service.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RoomStatus represents the room lifecycle state.
type RoomStatus = string

const (
	RoomStatusWaiting RoomStatus = "WAITING" // members joining, no list distributed yet
	RoomStatusActive  RoomStatus = "ACTIVE"  // voting in progress
	RoomStatusMatched RoomStatus = "MATCHED" // consensus reached, terminal
	RoomStatusClosed  RoomStatus = "CLOSED"  // closed by the owner, terminal
)

// Room represents one matching session. A room owns the canonical Master List
// (the ordered candidate set every member's shuffled list is a permutation of)
// and moves monotonically through WAITING -> ACTIVE -> {MATCHED|CLOSED}.
type Room struct {
	ID              uint       `gorm:"primaryKey"`
	CreatorID       uint       `gorm:"index;not null"`
	InviteCode      string     `gorm:"uniqueIndex;size:191;not null"`
	Status          RoomStatus `gorm:"size:20;index;not null;default:WAITING"`
	MaxMembers      int        `gorm:"not null;default:8"`
	MasterList      string     `gorm:"type:text"`          // JSON array of content ids
	ListVersion     uint       `gorm:"not null;default:0"` // guards conditional master-list writes
	ResultContentID string     `gorm:"size:191"`
	Filters         string     `gorm:"type:text"` // JSON filter spec used to build the list
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

// IsTerminal reports whether the room reached one of the terminal states.
func (r *Room) IsTerminal() bool {
	return r.Status == RoomStatusMatched || r.Status == RoomStatusClosed
}

// ParseMasterList decodes the MasterList column into an ordered id slice.
// An empty column means "no list built yet" and decodes to an empty slice.
func (r *Room) ParseMasterList() ([]ContentID, error) {
	if r.MasterList == "" || r.MasterList == "null" {
		return []ContentID{}, nil
	}
	var ids []ContentID
	if err := json.Unmarshal([]byte(r.MasterList), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal master list for room %d: %w", r.ID, err)
	}
	return ids, nil
}

// SetMasterList serializes the ordered id slice into the MasterList column.
func (r *Room) SetMasterList(ids []ContentID) error {
	bytes, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal master list: %w", err)
	}
	r.MasterList = string(bytes)
	return nil
}

// ParseFilters decodes the stored filter spec used to build this room's list.
func (r *Room) ParseFilters() (Filters, error) {
	var f Filters
	if r.Filters == "" || r.Filters == "null" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(r.Filters), &f); err != nil {
		return f, fmt.Errorf("failed to unmarshal filters for room %d: %w", r.ID, err)
	}
	return f, nil
}

// SetFilters serializes the filter spec into the Filters column.
func (r *Room) SetFilters(f Filters) error {
	bytes, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal filters: %w", err)
	}
	r.Filters = string(bytes)
	return nil
}
