package models

import (
	"encoding/json"
	"time"
)

// Client -> server message types.
const (
	MsgJoin         = "join"
	MsgLeave        = "leave"
	MsgFeature      = "feature"
	MsgPresetChange = "presetChange"
	MsgChat         = "chat"
)

// Server -> client event types.
const (
	EventMemberJoined  = "memberJoined"
	EventMemberLeft    = "memberLeft"
	EventRoomState     = "roomState"
	EventVisualFrame   = "visualFrame"
	EventPresetChanged = "presetChanged"
	EventChatMessage   = "chatMessage"
	EventError         = "error"
)

// Error codes carried by error events.
const (
	CodeAuthFailed     = "AUTH_FAILED"
	CodePresetNotFound = "PRESET_NOT_FOUND"
	CodeMalformedFrame = "MALFORMED_FRAME"
	CodeBadRequest     = "BAD_REQUEST"
	CodeRateLimited    = "RATE_LIMITED"
	CodeNotInRoom      = "NOT_IN_ROOM"
	CodeNotFound       = "NOT_FOUND"
	CodeInternal       = "INTERNAL"
)

// Event is the envelope for every message on the wire, in both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEvent marshals payload into an envelope of the given type.
func EncodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type ChatRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type PresetChangeRequest struct {
	PresetID string `json:"presetId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PresenceEvent is the payload of memberJoined and memberLeft.
type PresenceEvent struct {
	RoomID       string    `json:"roomId"`
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Role         string    `json:"role,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type PresetChangedEvent struct {
	RoomID    string    `json:"roomId,omitempty"`
	PresetID  string    `json:"presetId"`
	Preset    *Preset   `json:"preset,omitempty"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}
