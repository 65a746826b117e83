package models

import "time"

// MaxChatHistory is the most chat messages a room retains.
const MaxChatHistory = 100

// ChatMessage is a single message in a room's bounded chat history.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
