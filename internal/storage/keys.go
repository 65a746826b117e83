package storage

import "fmt"

func FeatureKey(userID string) string {
	return fmt.Sprintf("audio:%s:latest", userID)
}

func VisualKey(userID string) string {
	return fmt.Sprintf("visual:%s:latest", userID)
}

func CurrentPresetKey(userID string) string {
	return fmt.Sprintf("user:%s:current-preset", userID)
}

func ChatHistoryKey(roomID string) string {
	return fmt.Sprintf("chat:%s:history", roomID)
}

func RoomStateKey(roomID string) string {
	return fmt.Sprintf("visual:room:%s:state", roomID)
}

// VisualChannel carries every VisualFrame a user produces, for backend consumers.
func VisualChannel(userID string) string {
	return fmt.Sprintf("visual:%s", userID)
}

// RelayChannel carries room events between hub instances.
func RelayChannel(roomID string) string {
	return fmt.Sprintf("relay:room:%s", roomID)
}

// RevocationKey marks a revoked token id.
func RevocationKey(prefix, jti string) string {
	return fmt.Sprintf("%s:%s", prefix, jti)
}
