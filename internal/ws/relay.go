package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/metrics"
	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

// relayEnvelope wraps a room event published for other hub instances.
type relayEnvelope struct {
	Origin string          `json:"origin"`
	RoomID string          `json:"roomId"`
	Event  json.RawMessage `json:"event"`
}

// relay mirrors room events across hub instances sharing a cache. An instance
// is subscribed to a room's channel exactly while it holds members of the room.
type relay struct {
	hub *Hub

	mu     sync.Mutex
	subs   map[string]storage.Subscription
	closed bool
}

func newRelay(h *Hub) *relay {
	return &relay{hub: h, subs: make(map[string]storage.Subscription)}
}

func (h *Hub) reconcileRelay(roomID string) {
	if h.relay != nil {
		h.relay.reconcile(roomID)
	}
}

func (h *Hub) relayPublish(ctx context.Context, roomID string, evt []byte) {
	if h.relay != nil && evt != nil {
		h.relay.publish(ctx, roomID, evt)
	}
}

// reconcile subscribes to or unsubscribes from roomID's channel depending on
// whether the room currently has local members.
func (r *relay) reconcile(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	members := 0
	if room := r.hub.lookup(roomID); room != nil {
		members = room.MemberCount()
	}
	sub, subscribed := r.subs[roomID]

	switch {
	case members > 0 && !subscribed:
		// The subscription lives as long as the hub.
		s, err := r.hub.cache.Subscribe(r.hub.ctx, storage.RelayChannel(roomID), r.handle)
		if err != nil {
			r.hub.cacheError("subscribe", err)
			return
		}
		r.subs[roomID] = s
	case members == 0 && subscribed:
		delete(r.subs, roomID)
		if err := sub.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "reconcile",
				"room_id":  roomID,
				"error":    err.Error(),
			}).Warn("Failed to close relay subscription")
		}
	}
}

func (r *relay) publish(ctx context.Context, roomID string, evt []byte) {
	data, err := json.Marshal(relayEnvelope{Origin: r.hub.instanceID, RoomID: roomID, Event: evt})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.hub.opts.OpTimeout)
	defer cancel()
	if err := r.hub.cache.Publish(ctx, storage.RelayChannel(roomID), data); err != nil {
		metrics.PublishFailures.Inc()
		r.hub.cacheError("publish", err)
	}
}

// handle delivers a remote event to local members and folds chat and preset
// changes into the local room so snapshots stay consistent across instances.
func (r *relay) handle(_ string, payload []byte) {
	var env relayEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "relay.handle",
			"error":    err.Error(),
		}).Warn("Discarding malformed relay message")
		return
	}
	if env.Origin == r.hub.instanceID {
		return
	}
	room := r.hub.lookup(env.RoomID)
	if room == nil {
		return
	}

	var evt models.Event
	if err := json.Unmarshal(env.Event, &evt); err != nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.dead {
		return
	}
	switch evt.Type {
	case models.EventChatMessage:
		var msg models.ChatMessage
		if err := json.Unmarshal(evt.Payload, &msg); err == nil {
			room.appendChatLocked(msg, r.hub.opts.ChatHistory)
			room.version++
		}
	case models.EventPresetChanged:
		var pc models.PresetChangedEvent
		if err := json.Unmarshal(evt.Payload, &pc); err == nil {
			room.presetID = pc.PresetID
			room.preset = pc.Preset
			room.version++
		}
	case models.EventVisualFrame:
		var v models.VisualFrame
		if err := json.Unmarshal(evt.Payload, &v); err == nil {
			room.latestVisual = &v
		}
	}
	room.broadcastLocked(env.Event, nil)
}

func (r *relay) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, sub := range r.subs {
		_ = sub.Close()
		delete(r.subs, id)
	}
}
