package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Vasu1712/scenyx-live/internal/metrics"
	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

// PersonalRoomPrefix prefixes the implicit per-user room. Named rooms may not use it.
const PersonalRoomPrefix = "user:"

const maxRoomIDLength = 128

// Options tune the hub. Zero values are replaced by DefaultOptions.
type Options struct {
	FeatureTTL     time.Duration
	PresetTTL      time.Duration
	RoomStateTTL   time.Duration
	ChatHistoryTTL time.Duration

	ChatHistory   int
	MaxChatLength int
	MaxBins       int
	// ChatBurst caps chat messages per connection before refill applies. Zero disables the limit.
	ChatBurst  int
	ChatRefill time.Duration

	SendBuffer     int
	IdleTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64

	// OpTimeout bounds every cache call made on behalf of a connection.
	OpTimeout time.Duration
	// StatePersistInterval throttles room snapshots caused by feature frames.
	StatePersistInterval time.Duration
	// DormantRoomTTL is how long an empty room stays in memory.
	DormantRoomTTL time.Duration
	SweepInterval  time.Duration

	RelayEnabled bool
	Now          func() time.Time
}

func DefaultOptions() Options {
	return Options{
		FeatureTTL:           5 * time.Second,
		PresetTTL:            time.Hour,
		RoomStateTTL:         24 * time.Hour,
		ChatHistoryTTL:       24 * time.Hour,
		ChatHistory:          models.MaxChatHistory,
		MaxChatLength:        1000,
		MaxBins:              2048,
		ChatBurst:            0,
		ChatRefill:           time.Second,
		SendBuffer:           256,
		IdleTimeout:          60 * time.Second,
		WriteTimeout:         10 * time.Second,
		PingInterval:         54 * time.Second,
		MaxMessageSize:       64 * 1024,
		OpTimeout:            2 * time.Second,
		StatePersistInterval: time.Second,
		DormantRoomTTL:       10 * time.Minute,
		SweepInterval:        time.Minute,
		Now:                  time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FeatureTTL <= 0 {
		o.FeatureTTL = d.FeatureTTL
	}
	if o.PresetTTL <= 0 {
		o.PresetTTL = d.PresetTTL
	}
	if o.RoomStateTTL <= 0 {
		o.RoomStateTTL = d.RoomStateTTL
	}
	if o.ChatHistoryTTL <= 0 {
		o.ChatHistoryTTL = d.ChatHistoryTTL
	}
	if o.ChatHistory <= 0 || o.ChatHistory > models.MaxChatHistory {
		o.ChatHistory = d.ChatHistory
	}
	if o.MaxChatLength <= 0 {
		o.MaxChatLength = d.MaxChatLength
	}
	if o.MaxBins <= 0 {
		o.MaxBins = d.MaxBins
	}
	if o.ChatBurst < 0 {
		o.ChatBurst = 0
	}
	if o.ChatRefill <= 0 {
		o.ChatRefill = d.ChatRefill
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = d.IdleTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = d.OpTimeout
	}
	if o.StatePersistInterval <= 0 {
		o.StatePersistInterval = d.StatePersistInterval
	}
	if o.DormantRoomTTL <= 0 {
		o.DormantRoomTTL = d.DormantRoomTTL
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = d.SweepInterval
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// Hub tracks connections and rooms and relays events between them.
type Hub struct {
	opts       Options
	cache      storage.Cache
	presets    storage.PresetStore
	instanceID string

	mu      sync.RWMutex
	rooms   map[string]*Room
	clients map[string]*Client
	users   map[string]map[*Client]struct{} // personal rooms
	closed  bool

	relay *relay
	tasks sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(cache storage.Cache, presets storage.PresetStore, opts Options) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		opts:       opts.withDefaults(),
		cache:      cache,
		presets:    presets,
		instanceID: uuid.NewString(),
		rooms:      make(map[string]*Room),
		clients:    make(map[string]*Client),
		users:      make(map[string]map[*Client]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	if h.opts.RelayEnabled {
		h.relay = newRelay(h)
	}
	return h
}

// InstanceID identifies this hub among instances sharing a relay channel.
func (h *Hub) InstanceID() string { return h.instanceID }

// Run reaps dormant rooms until ctx is cancelled or the hub shuts down.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.reapDormant()
		}
	}
}

// NewClient wraps conn in a Client in the Connecting state. conn may be nil for
// connections that are driven directly through Hub operations.
func (h *Hub) NewClient(conn *websocket.Conn) *Client {
	c := &Client{
		id:    uuid.NewString(),
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, h.opts.SendBuffer),
		done:  make(chan struct{}),
		state: StateConnecting,
		rooms: make(map[string]struct{}),
	}
	if h.opts.ChatBurst > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(h.opts.ChatBurst)/h.opts.ChatRefill.Seconds()), h.opts.ChatBurst)
	}
	return c
}

// Activate registers an authenticated client and places it in its personal room.
func (h *Hub) Activate(c *Client, id models.Identity) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.Reject()
		return ErrConnectionClosed
	}
	if !c.activate(id) {
		h.mu.Unlock()
		return ErrConnectionClosed
	}
	h.clients[c.id] = c
	if h.users[id.UserID] == nil {
		h.users[id.UserID] = make(map[*Client]struct{})
	}
	h.users[id.UserID][c] = struct{}{}
	h.mu.Unlock()

	metrics.ActiveConnections.Inc()
	metrics.TotalConnections.Inc()

	logrus.WithFields(logrus.Fields{
		"function": "Activate",
		"conn_id":  c.id,
		"user_id":  id.UserID,
	}).Info("Connection active")
	return nil
}

// Serve starts the read and write pumps of an active client.
func (h *Hub) Serve(c *Client) {
	if c.conn == nil {
		return
	}
	go c.writePump()
	go c.readPump()
}

// Join adds c to roomID. The joining connection receives memberJoined for itself
// and, when the cache holds a snapshot of the room, a roomState event with it.
func (h *Hub) Join(ctx context.Context, c *Client, roomID string) (*models.RoomState, error) {
	if err := h.checkActive(c, "Join"); err != nil {
		return nil, err
	}
	if err := validateRoomID(roomID); err != nil {
		return nil, err
	}
	if c.inRoom(roomID) {
		return nil, nil
	}

	cached := h.cachedRoomState(ctx, roomID)

	var (
		room *Room
		snap roomSnapshot
		evt  []byte
	)
	for {
		room = h.room(roomID)
		history := h.loadHistory(ctx, room)

		room.mu.Lock()
		if room.dead {
			room.mu.Unlock()
			continue
		}
		room.mergeHistoryLocked(history, h.opts.ChatHistory)
		break
	}

	if _, ok := room.members[c]; ok {
		room.mu.Unlock()
		return nil, nil
	}
	if !c.addRoom(roomID) {
		room.mu.Unlock()
		return nil, ErrConnectionClosed
	}

	now := h.opts.Now()
	room.members[c] = struct{}{}
	first := len(room.members) == 1
	room.version++
	room.lastActive = now

	evt = encode(models.EventMemberJoined, h.presence(roomID, c, now))
	room.broadcastLocked(evt, nil)
	if cached != nil {
		c.enqueue(encode(models.EventRoomState, cached))
	}
	snap = room.snapshotLocked(now)
	room.mu.Unlock()

	if first {
		metrics.ActiveRooms.Inc()
		h.reconcileRelay(roomID)
	}
	h.relayPublish(ctx, roomID, evt)
	h.persistRoom(ctx, room, snap)

	logrus.WithFields(logrus.Fields{
		"function": "Join",
		"conn_id":  c.id,
		"room_id":  roomID,
	}).Info("Joined room")
	return cached, nil
}

// Leave removes c from roomID and notifies the remaining members.
func (h *Hub) Leave(ctx context.Context, c *Client, roomID string) error {
	if err := h.checkActive(c, "Leave"); err != nil {
		return err
	}
	room := h.lookup(roomID)
	if room == nil || !c.inRoom(roomID) {
		return fmt.Errorf("%w: %s", ErrNotInRoom, roomID)
	}
	if !h.removeMember(ctx, room, c) {
		return fmt.Errorf("%w: %s", ErrNotInRoom, roomID)
	}
	return nil
}

func (h *Hub) removeMember(ctx context.Context, room *Room, c *Client) bool {
	room.mu.Lock()
	if _, ok := room.members[c]; !ok {
		room.mu.Unlock()
		return false
	}
	now := h.opts.Now()
	delete(room.members, c)
	delete(room.latest, c.id)
	c.removeRoom(room.id)
	room.version++
	room.lastActive = now
	empty := len(room.members) == 0

	evt := encode(models.EventMemberLeft, h.presence(room.id, c, now))
	room.broadcastLocked(evt, nil)
	snap := room.snapshotLocked(now)
	room.mu.Unlock()

	if empty {
		metrics.ActiveRooms.Dec()
		h.reconcileRelay(room.id)
	}
	h.relayPublish(ctx, room.id, evt)
	h.persistRoom(ctx, room, snap)

	logrus.WithFields(logrus.Fields{
		"function": "removeMember",
		"conn_id":  c.id,
		"room_id":  room.id,
	}).Info("Left room")
	return true
}

// SubmitFeature stores frame as c's latest, derives a VisualFrame per room and
// fans it out to every other member of each room c belongs to.
func (h *Hub) SubmitFeature(ctx context.Context, c *Client, frame models.FeatureFrame) error {
	if err := h.checkActive(c, "SubmitFeature"); err != nil {
		return err
	}
	if err := frame.Validate(h.opts.MaxBins); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	id := c.Identity()
	now := h.opts.Now()
	var visual *models.VisualFrame

	for _, roomID := range c.Rooms() {
		room := h.lookup(roomID)
		if room == nil {
			continue
		}

		room.mu.Lock()
		if _, ok := room.members[c]; !ok {
			room.mu.Unlock()
			continue
		}
		room.latest[c.id] = frame
		v := models.VisualFrame{
			Timestamp:  frame.Timestamp,
			PresetID:   room.presetID,
			RoomID:     roomID,
			UserID:     id.UserID,
			Username:   id.DisplayName(),
			Parameters: DeriveVisual(frame, room.effectivePresetLocked()),
		}
		evt := encode(models.EventVisualFrame, v)
		room.broadcastLocked(evt, c)
		room.latestVisual = &v
		room.version++
		room.lastActive = now

		persist := now.Sub(room.lastPersist) >= h.opts.StatePersistInterval
		var snap roomSnapshot
		if persist {
			room.lastPersist = now
			snap = room.snapshotLocked(now)
		}
		room.mu.Unlock()

		visual = &v
		h.relayPublish(ctx, roomID, evt)
		if persist {
			h.persistRoom(ctx, room, snap)
		}
	}

	if visual == nil {
		preset := c.currentPreset()
		presetID := models.DefaultPresetID
		if preset != nil {
			presetID = preset.ID
		}
		visual = &models.VisualFrame{
			Timestamp:  frame.Timestamp,
			PresetID:   presetID,
			UserID:     id.UserID,
			Username:   id.DisplayName(),
			Parameters: DeriveVisual(frame, preset),
		}
	}

	h.cacheSet(ctx, storage.FeatureKey(id.UserID), frame, h.opts.FeatureTTL)
	h.cacheSet(ctx, storage.VisualKey(id.UserID), visual, h.opts.FeatureTTL)
	h.publish(ctx, storage.VisualChannel(id.UserID), visual)
	return nil
}

// ChangePreset resolves presetID and applies it to every named room of c. The
// presetChanged event is echoed to the sender. With no named rooms, the
// confirmation goes to the sender's personal room.
func (h *Hub) ChangePreset(ctx context.Context, c *Client, presetID string) (*models.Preset, error) {
	if err := h.checkActive(c, "ChangePreset"); err != nil {
		return nil, err
	}
	presetID = strings.TrimSpace(presetID)
	if presetID == "" {
		return nil, fmt.Errorf("%w: presetId is required", ErrBadRequest)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, h.opts.OpTimeout)
	preset, err := h.presets.Get(lookupCtx, presetID)
	cancel()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, presetID)
		}
		return nil, fmt.Errorf("preset lookup failed: %w", err)
	}

	id := c.Identity()
	now := h.opts.Now()
	c.setPreset(preset)
	h.cacheSet(ctx, storage.CurrentPresetKey(id.UserID), presetID, h.opts.PresetTTL)

	rooms := c.Rooms()
	for _, roomID := range rooms {
		room := h.lookup(roomID)
		if room == nil {
			continue
		}
		room.mu.Lock()
		if _, ok := room.members[c]; !ok {
			room.mu.Unlock()
			continue
		}
		room.presetID = presetID
		room.preset = preset
		room.version++
		room.lastActive = now
		evt := encode(models.EventPresetChanged, h.presetChanged(roomID, preset, id, now))
		room.broadcastLocked(evt, nil)
		snap := room.snapshotLocked(now)
		room.mu.Unlock()

		h.relayPublish(ctx, roomID, evt)
		h.persistRoom(ctx, room, snap)
	}

	if len(rooms) == 0 {
		h.SendToUser(id.UserID, models.EventPresetChanged, h.presetChanged("", preset, id, now))
	}

	h.incrementUsage(presetID)

	logrus.WithFields(logrus.Fields{
		"function":  "ChangePreset",
		"conn_id":   c.id,
		"preset_id": presetID,
	}).Info("Preset changed")
	return preset, nil
}

// SendChat appends a message to roomID's bounded history and broadcasts it to
// every member, the sender included. Blank text is ignored.
func (h *Hub) SendChat(ctx context.Context, c *Client, roomID, text string) (*models.ChatMessage, error) {
	if err := h.checkActive(c, "SendChat"); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(text) > h.opts.MaxChatLength {
		return nil, fmt.Errorf("%w: message longer than %d characters", ErrBadRequest, h.opts.MaxChatLength)
	}
	room := h.lookup(roomID)
	if room == nil || !c.inRoom(roomID) {
		return nil, fmt.Errorf("%w: %s", ErrNotInRoom, roomID)
	}
	if !c.allowChat() {
		return nil, ErrRateLimited
	}

	id := c.Identity()
	now := h.opts.Now()
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    id.UserID,
		Username:  id.DisplayName(),
		Message:   text,
		Timestamp: now,
	}

	room.mu.Lock()
	if _, ok := room.members[c]; !ok {
		room.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotInRoom, roomID)
	}
	room.appendChatLocked(msg, h.opts.ChatHistory)
	room.version++
	room.lastActive = now
	evt := encode(models.EventChatMessage, msg)
	room.broadcastLocked(evt, nil)
	snap := room.snapshotLocked(now)
	room.mu.Unlock()

	h.relayPublish(ctx, roomID, evt)
	h.persistRoom(ctx, room, snap)
	return &msg, nil
}

// Disconnect closes c and removes it from every room. It runs at most once per
// connection whichever path triggers it.
func (h *Hub) Disconnect(c *Client) {
	c.disconnectOnce.Do(func() {
		rooms, wasActive := c.markClosed()

		ctx, cancel := context.WithTimeout(context.Background(), h.opts.OpTimeout)
		defer cancel()
		for _, roomID := range rooms {
			if room := h.lookup(roomID); room != nil {
				h.removeMember(ctx, room, c)
			}
		}

		h.mu.Lock()
		delete(h.clients, c.id)
		id := c.Identity()
		if set, ok := h.users[id.UserID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.users, id.UserID)
			}
		}
		h.mu.Unlock()

		if wasActive {
			metrics.ActiveConnections.Dec()
			logrus.WithFields(logrus.Fields{
				"function": "Disconnect",
				"conn_id":  c.id,
				"user_id":  id.UserID,
				"rooms":    len(rooms),
			}).Info("Connection closed")
		}
	})
}

// SendToUser delivers an event to every connection of userID and returns how
// many accepted it.
func (h *Hub) SendToUser(userID, eventType string, payload any) int {
	msg := encode(eventType, payload)
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.users[userID] {
		if c.enqueue(msg) {
			n++
		}
	}
	return n
}

// RoomState returns the live snapshot of roomID, or the cached one when the room
// is not held by this instance.
func (h *Hub) RoomState(ctx context.Context, roomID string) (*models.RoomState, error) {
	if room := h.lookup(roomID); room != nil {
		room.mu.Lock()
		snap := room.snapshotLocked(h.opts.Now())
		room.mu.Unlock()
		return &snap.state, nil
	}
	var st models.RoomState
	if err := storage.GetJSON(ctx, h.cache, storage.RoomStateKey(roomID), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ChatHistory returns roomID's history, oldest first.
func (h *Hub) ChatHistory(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	if room := h.lookup(roomID); room != nil {
		room.mu.Lock()
		defer room.mu.Unlock()
		if room.bootstrapped || len(room.chat) > 0 {
			return append([]models.ChatMessage{}, room.chat...), nil
		}
	}
	var history []models.ChatMessage
	if err := storage.GetJSON(ctx, h.cache, storage.ChatHistoryKey(roomID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Stats reports the number of active connections and rooms held in memory.
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.rooms)
}

// Shutdown disconnects every client, stops the relay and waits for background
// work until ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Disconnect(c)
	}
	if h.relay != nil {
		h.relay.close()
	}
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) checkActive(c *Client, op string) error {
	if c.State() == StateActive {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"function": op,
		"conn_id":  c.id,
		"state":    c.State().String(),
	}).Warn("Operation on inactive connection ignored")
	return ErrConnectionClosed
}

// room returns the arena entry for id, creating it if needed.
func (h *Hub) room(id string) *Room {
	h.mu.RLock()
	r, ok := h.rooms[id]
	h.mu.RUnlock()
	if ok {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok = h.rooms[id]; ok {
		return r
	}
	r = newRoom(id, h.opts.Now())
	h.rooms[id] = r
	return r
}

func (h *Hub) lookup(id string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[id]
}

// reapDormant drops rooms that have been empty for longer than DormantRoomTTL.
// Their cached state and history remain until the cache expires them.
func (h *Hub) reapDormant() int {
	now := h.opts.Now()
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for id, r := range h.rooms {
		r.mu.Lock()
		if len(r.members) == 0 && now.Sub(r.lastActive) >= h.opts.DormantRoomTTL {
			r.dead = true
			delete(h.rooms, id)
			n++
		}
		r.mu.Unlock()
	}
	if n > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "reapDormant",
			"removed":  n,
		}).Debug("Reaped dormant rooms")
	}
	return n
}

func (h *Hub) loadHistory(ctx context.Context, room *Room) []models.ChatMessage {
	room.mu.Lock()
	done := room.bootstrapped
	room.mu.Unlock()
	if done {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.OpTimeout)
	defer cancel()
	var history []models.ChatMessage
	if err := storage.GetJSON(ctx, h.cache, storage.ChatHistoryKey(room.id), &history); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.cacheError("get", err)
		}
		return nil
	}
	return history
}

func (h *Hub) cachedRoomState(ctx context.Context, roomID string) *models.RoomState {
	ctx, cancel := context.WithTimeout(ctx, h.opts.OpTimeout)
	defer cancel()
	var st models.RoomState
	if err := storage.GetJSON(ctx, h.cache, storage.RoomStateKey(roomID), &st); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.cacheError("get", err)
		}
		return nil
	}
	return &st
}

// persistRoom writes a snapshot to the cache unless a newer one was written already.
func (h *Hub) persistRoom(ctx context.Context, room *Room, snap roomSnapshot) {
	room.persistMu.Lock()
	defer room.persistMu.Unlock()
	if snap.state.Version <= room.persisted {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.OpTimeout)
	defer cancel()
	if err := storage.SetJSON(ctx, h.cache, storage.RoomStateKey(room.id), snap.state, h.opts.RoomStateTTL); err != nil {
		h.cacheError("set", err)
		return
	}
	room.persisted = snap.state.Version

	if snap.chatVersion > room.persistedChat {
		if err := storage.SetJSON(ctx, h.cache, storage.ChatHistoryKey(room.id), snap.state.ChatHistory, h.opts.ChatHistoryTTL); err != nil {
			h.cacheError("set", err)
			return
		}
		room.persistedChat = snap.chatVersion
	}
}

func (h *Hub) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.OpTimeout)
	defer cancel()
	if err := storage.SetJSON(ctx, h.cache, key, v, ttl); err != nil {
		h.cacheError("set", err)
	}
}

// publish is best-effort: failures are counted and logged, never surfaced.
func (h *Hub) publish(ctx context.Context, channel string, v any) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.OpTimeout)
	defer cancel()
	if err := storage.PublishJSON(ctx, h.cache, channel, v); err != nil {
		metrics.PublishFailures.Inc()
		h.cacheError("publish", err)
	}
}

func (h *Hub) cacheError(op string, err error) {
	metrics.CacheErrors.WithLabelValues(op).Inc()
	logrus.WithFields(logrus.Fields{
		"function": "cache",
		"op":       op,
		"error":    err.Error(),
	}).Error("Cache operation failed")
}

// incrementUsage bumps the preset usage counter in the background, retrying
// transient failures a few times.
func (h *Hub) incrementUsage(presetID string) {
	h.tasks.Add(1)
	go func() {
		defer h.tasks.Done()

		op := func() error {
			ctx, cancel := context.WithTimeout(h.ctx, h.opts.OpTimeout)
			defer cancel()
			err := h.presets.IncrementUsage(ctx, presetID)
			if errors.Is(err, storage.ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), h.ctx)
		if err := backoff.Retry(op, bo); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "incrementUsage",
				"preset_id": presetID,
				"error":     err.Error(),
			}).Warn("Failed to increment preset usage")
		}
	}()
}

func (h *Hub) presence(roomID string, c *Client, now time.Time) models.PresenceEvent {
	id := c.Identity()
	return models.PresenceEvent{
		RoomID:       roomID,
		ConnectionID: c.id,
		UserID:       id.UserID,
		Username:     id.DisplayName(),
		Role:         id.Role,
		Timestamp:    now,
	}
}

func (h *Hub) presetChanged(roomID string, p *models.Preset, id models.Identity, now time.Time) models.PresetChangedEvent {
	return models.PresetChangedEvent{
		RoomID:    roomID,
		PresetID:  p.ID,
		Preset:    p,
		UserID:    id.UserID,
		Username:  id.DisplayName(),
		Timestamp: now,
	}
}

func validateRoomID(roomID string) error {
	switch {
	case strings.TrimSpace(roomID) == "":
		return fmt.Errorf("%w: roomId is required", ErrBadRequest)
	case len(roomID) > maxRoomIDLength:
		return fmt.Errorf("%w: roomId too long", ErrBadRequest)
	case strings.HasPrefix(roomID, PersonalRoomPrefix):
		return fmt.Errorf("%w: roomId %q is reserved", ErrBadRequest, roomID)
	}
	return nil
}

func encode(eventType string, payload any) []byte {
	b, err := models.EncodeEvent(eventType, payload)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "encode",
			"type":     eventType,
			"error":    err.Error(),
		}).Error("Failed to encode event")
		return nil
	}
	return b
}
