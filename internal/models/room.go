package models

import "time"

// Member is one connection's presence entry in a room.
type Member struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Role         string `json:"role,omitempty"`
}

// RoomState is the snapshot cached for a room so that late joiners can render
// something before the next live frame arrives.
type RoomState struct {
	RoomID       string        `json:"roomId"`
	PresetID     string        `json:"presetId"`
	Members      []Member      `json:"members"`
	ActiveUsers  int           `json:"activeUsers"` // Number of connections currently in the room
	LatestVisual *VisualFrame  `json:"latestVisual,omitempty"`
	ChatHistory  []ChatMessage `json:"chatHistory"`
	Version      uint64        `json:"version"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
