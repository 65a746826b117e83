package ws

import (
	"context"
	"errors"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Vasu1712/scenyx-live/internal/metrics"
	"github.com/Vasu1712/scenyx-live/internal/models"
)

// ConnState is the lifecycle state of a connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticating
	StateActive
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is one connection to the hub. Its identity is fixed when it becomes
// active; room membership is only changed through Hub operations.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter

	disconnectOnce sync.Once

	mu       sync.Mutex
	state    ConnState
	identity models.Identity
	rooms    map[string]struct{}
	preset   *models.Preset
}

func (c *Client) ID() string { return c.id }

func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) Identity() models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Rooms returns the named rooms the connection belongs to, sorted.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Outbound exposes the queue of encoded events waiting to be written.
func (c *Client) Outbound() <-chan []byte { return c.send }

// Done is closed when the connection is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// BeginAuth moves a fresh connection into Authenticating.
func (c *Client) BeginAuth() bool {
	return c.transition(StateConnecting, StateAuthenticating)
}

// Reject closes a connection that failed authentication.
func (c *Client) Reject() {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = StateClosed
		close(c.done)
	}
	c.mu.Unlock()
}

func (c *Client) transition(from, to ConnState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	return true
}

func (c *Client) activate(id models.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAuthenticating {
		return false
	}
	c.identity = id
	c.state = StateActive
	return true
}

// markClosed moves the client to Closed and returns the rooms it was in and
// whether it had been active.
func (c *Client) markClosed() (rooms []string, wasActive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil, false
	}
	wasActive = c.state == StateActive
	c.state = StateClosed
	close(c.done)
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	return rooms, wasActive
}

// addRoom records membership. It refuses once the client is closed so that a
// join racing a disconnect cannot leave a stale member behind.
func (c *Client) addRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return false
	}
	c.rooms[roomID] = struct{}{}
	return true
}

func (c *Client) removeRoom(roomID string) {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
}

func (c *Client) inRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[roomID]
	return ok
}

func (c *Client) setPreset(p *models.Preset) {
	c.mu.Lock()
	c.preset = p
	c.mu.Unlock()
}

func (c *Client) currentPreset() *models.Preset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preset
}

func (c *Client) allowChat() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// enqueue hands msg to the write pump without blocking. A full buffer drops the message.
func (c *Client) enqueue(msg []byte) bool {
	if msg == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		metrics.EventsDropped.Inc()
		logrus.WithFields(logrus.Fields{
			"function": "enqueue",
			"conn_id":  c.id,
		}).Debug("Send buffer full, event dropped")
		return false
	}
}

func (c *Client) readPump() {
	defer c.hub.Disconnect(c)

	opts := c.hub.opts
	c.conn.SetReadLimit(opts.MaxMessageSize)
	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if c.State() != StateActive {
			return
		}
		c.extendReadDeadline()
		_ = c.hub.HandleMessage(context.Background(), c, raw)
	}
}

// extendReadDeadline pushes the idle timeout out after any inbound activity.
func (c *Client) extendReadDeadline() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.IdleTimeout)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "extendReadDeadline",
			"conn_id":  c.id,
			"error":    err.Error(),
		}).Debug("Failed to set read deadline")
	}
}

func (c *Client) logReadError(err error) {
	fields := logrus.Fields{
		"function": "readPump",
		"conn_id":  c.id,
		"error":    err.Error(),
	}
	var netErr net.Error
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		logrus.WithFields(fields).Warn("Message exceeded maximum size")
	case errors.As(err, &netErr) && netErr.Timeout():
		logrus.WithFields(fields).Info("Connection idle timeout")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway),
		errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		logrus.WithFields(fields).Debug("Client disconnected")
	default:
		logrus.WithFields(fields).Warn("WebSocket read error")
	}
}

func (c *Client) writePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.Disconnect(c)
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "writePump",
					"conn_id":  c.id,
					"error":    err.Error(),
				}).Debug("WebSocket write error")
				return
			}
			metrics.EventsSent.Inc()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
