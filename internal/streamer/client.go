// Package streamer connects a local feature extractor to a hub room.
package streamer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// ErrNotConnected is returned by Run before Connect succeeded.
var ErrNotConnected = errors.New("streamer not connected")

type Config struct {
	URL    string // ws://host:port/ws
	Token  string
	RoomID string
	// TokenParam names the query parameter carrying Token. It must match the
	// hub's auth.tokenQueryParam. The token is also sent as a bearer header.
	TokenParam string

	QueueSize      int
	WriteTimeout   time.Duration
	DialTimeout    time.Duration
	MaxDialElapsed time.Duration
}

func (c Config) withDefaults() Config {
	if c.TokenParam == "" {
		c.TokenParam = "token"
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.MaxDialElapsed <= 0 {
		c.MaxDialElapsed = time.Minute
	}
	return c
}

// Client streams feature frames to a hub and hands visual frames to a Renderer.
type Client struct {
	cfg      Config
	renderer Renderer
	log      *logrus.Entry

	queue   chan []byte
	dropped atomic.Uint64
	sent    atomic.Uint64

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(cfg Config, renderer Renderer) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:      cfg,
		renderer: renderer,
		log:      logrus.WithField("component", "streamer"),
		queue:    make(chan []byte, cfg.QueueSize),
	}
}

// Connect dials the hub, retrying with exponential backoff, and joins the room.
// An authentication failure is not retried.
func (c *Client) Connect(ctx context.Context) error {
	target, err := c.dialURL()
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	var header http.Header
	if c.cfg.Token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + c.cfg.Token}}
	}

	var conn *websocket.Conn
	op := func() error {
		cn, resp, err := dialer.DialContext(ctx, target, header)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return backoff.Permanent(fmt.Errorf("hub rejected credentials: %w", err))
			}
			return err
		}
		conn = cn
		return nil
	}
	notify := func(err error, next time.Duration) {
		c.log.WithFields(logrus.Fields{
			"error": err.Error(),
			"retry": next.String(),
		}).Warn("Dial failed, retrying")
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.cfg.MaxDialElapsed
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	join, err := models.EncodeEvent(models.MsgJoin, models.RoomRequest{RoomID: c.cfg.RoomID})
	if err != nil {
		conn.Close()
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		conn.Close()
		return fmt.Errorf("failed to join room %s: %w", c.cfg.RoomID, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.log.WithField("room_id", c.cfg.RoomID).Info("Connected to hub")
	return nil
}

// Send queues frame for delivery. When the queue is full the frame is dropped
// and false is returned; the extractor never blocks on the network.
func (c *Client) Send(frame models.FeatureFrame) bool {
	msg, err := models.EncodeEvent(models.MsgFeature, frame)
	if err != nil {
		return false
	}
	select {
	case c.queue <- msg:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Dropped returns how many frames were discarded because the queue was full.
func (c *Client) Dropped() uint64 { return c.dropped.Load() }

// Sent returns how many frames were written to the hub.
func (c *Client) Sent() uint64 { return c.sent.Load() }

// Run pumps queued frames to the hub and server events to the renderer until
// ctx is cancelled or the connection fails.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	readErr := make(chan error, 1)
	go func() { readErr <- c.readLoop(conn) }()

	for {
		select {
		case <-ctx.Done():
			c.closeConn(conn)
			<-readErr
			conn.Close()
			return nil
		case err := <-readErr:
			conn.Close()
			return err
		case msg := <-c.queue:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				return fmt.Errorf("write failed: %w", err)
			}
			c.sent.Add(1)
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}
		c.handleEvent(raw)
	}
}

func (c *Client) handleEvent(raw []byte) {
	var evt models.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		c.log.WithField("error", err.Error()).Warn("Ignoring undecodable event")
		return
	}

	switch evt.Type {
	case models.EventVisualFrame:
		var frame models.VisualFrame
		if err := json.Unmarshal(evt.Payload, &frame); err == nil && c.renderer != nil {
			c.renderer.Render(frame)
		}
	case models.EventError:
		var p models.ErrorPayload
		_ = json.Unmarshal(evt.Payload, &p)
		c.log.WithFields(logrus.Fields{"code": p.Code}).Warn(p.Message)
	case models.EventMemberJoined, models.EventMemberLeft:
		var p models.PresenceEvent
		if err := json.Unmarshal(evt.Payload, &p); err == nil {
			c.log.WithFields(logrus.Fields{
				"room_id":  p.RoomID,
				"username": p.Username,
			}).Info(evt.Type)
		}
	case models.EventPresetChanged:
		var p models.PresetChangedEvent
		if err := json.Unmarshal(evt.Payload, &p); err == nil {
			c.log.WithField("preset_id", p.PresetID).Info("Preset changed")
		}
	}
}

func (c *Client) closeConn(conn *websocket.Conn) {
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	// The read loop ends once the hub echoes the close frame; the deadline
	// bounds the wait when it does not.
	conn.SetReadDeadline(time.Now().Add(c.cfg.WriteTimeout))
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid hub url: %w", err)
	}
	if c.cfg.Token != "" {
		q := u.Query()
		q.Set(c.cfg.TokenParam, c.cfg.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
