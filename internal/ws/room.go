package ws

import (
	"sort"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// Room is one entry of the hub's room arena. Every field below mu is guarded by
// it, and every broadcast to the room happens while mu is held, so fan-out is
// linearizable with joins and leaves.
type Room struct {
	id string

	mu           sync.Mutex
	members      map[*Client]struct{}
	latest       map[string]models.FeatureFrame // by connection id
	presetID     string
	preset       *models.Preset
	chat         []models.ChatMessage
	chatVersion  uint64
	latestVisual *models.VisualFrame
	version      uint64
	bootstrapped bool
	dead         bool
	lastActive   time.Time
	lastPersist  time.Time

	// persistMu orders cache writes of snapshots taken under mu.
	persistMu     sync.Mutex
	persisted     uint64
	persistedChat uint64
}

// roomSnapshot is a RoomState plus the bookkeeping needed to persist it.
type roomSnapshot struct {
	state       models.RoomState
	chatVersion uint64
}

func newRoom(id string, now time.Time) *Room {
	return &Room{
		id:         id,
		members:    make(map[*Client]struct{}),
		latest:     make(map[string]models.FeatureFrame),
		presetID:   models.DefaultPresetID,
		lastActive: now,
	}
}

func (r *Room) ID() string { return r.id }

// MemberCount returns the number of connections currently in the room.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// broadcastLocked enqueues msg to every member except skip and returns how many
// members accepted it.
func (r *Room) broadcastLocked(msg []byte, skip *Client) int {
	n := 0
	for c := range r.members {
		if c == skip {
			continue
		}
		if c.enqueue(msg) {
			n++
		}
	}
	return n
}

func (r *Room) appendChatLocked(msg models.ChatMessage, limit int) {
	r.chat = append(r.chat, msg)
	if over := len(r.chat) - limit; over > 0 {
		r.chat = append([]models.ChatMessage(nil), r.chat[over:]...)
	}
	r.chatVersion++
}

// mergeHistoryLocked prepends history loaded from the cache to messages that
// arrived since the room was created.
func (r *Room) mergeHistoryLocked(history []models.ChatMessage, limit int) {
	if r.bootstrapped {
		return
	}
	r.bootstrapped = true
	if len(history) == 0 {
		return
	}
	merged := append(append([]models.ChatMessage(nil), history...), r.chat...)
	if over := len(merged) - limit; over > 0 {
		merged = merged[over:]
	}
	r.chat = merged
}

func (r *Room) effectivePresetLocked() *models.Preset {
	if r.preset != nil {
		return r.preset
	}
	def := models.DefaultPreset()
	return &def
}

func (r *Room) snapshotLocked(now time.Time) roomSnapshot {
	members := make([]models.Member, 0, len(r.members))
	for c := range r.members {
		id := c.Identity()
		members = append(members, models.Member{
			ConnectionID: c.id,
			UserID:       id.UserID,
			Username:     id.DisplayName(),
			Role:         id.Role,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ConnectionID < members[j].ConnectionID })

	var visual *models.VisualFrame
	if r.latestVisual != nil {
		v := *r.latestVisual
		visual = &v
	}

	return roomSnapshot{
		state: models.RoomState{
			RoomID:       r.id,
			PresetID:     r.presetID,
			Members:      members,
			ActiveUsers:  len(members),
			LatestVisual: visual,
			ChatHistory:  append([]models.ChatMessage{}, r.chat...),
			Version:      r.version,
			UpdatedAt:    now,
		},
		chatVersion: r.chatVersion,
	}
}
