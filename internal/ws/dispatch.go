package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/metrics"
	"github.com/Vasu1712/scenyx-live/internal/models"
)

// HandleMessage decodes one inbound frame and dispatches it. Failures are
// reported to the sender as an error event; the connection stays open.
func (h *Hub) HandleMessage(ctx context.Context, c *Client, raw []byte) error {
	var evt models.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		err = fmt.Errorf("%w: invalid envelope: %v", ErrBadRequest, err)
		h.reportError(c, "unknown", err)
		return err
	}
	metrics.MessagesReceived.WithLabelValues(messageLabel(evt.Type)).Inc()

	err := h.dispatch(ctx, c, evt)
	if err != nil {
		h.reportError(c, evt.Type, err)
	}
	return err
}

func (h *Hub) dispatch(ctx context.Context, c *Client, evt models.Event) error {
	switch evt.Type {
	case models.MsgJoin:
		var req models.RoomRequest
		if err := decodePayload(evt, &req); err != nil {
			return err
		}
		_, err := h.Join(ctx, c, req.RoomID)
		return err

	case models.MsgLeave:
		var req models.RoomRequest
		if err := decodePayload(evt, &req); err != nil {
			return err
		}
		return h.Leave(ctx, c, req.RoomID)

	case models.MsgFeature:
		var frame models.FeatureFrame
		if err := json.Unmarshal(evt.Payload, &frame); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return h.SubmitFeature(ctx, c, frame)

	case models.MsgPresetChange:
		var req models.PresetChangeRequest
		if err := decodePayload(evt, &req); err != nil {
			return err
		}
		_, err := h.ChangePreset(ctx, c, req.PresetID)
		return err

	case models.MsgChat:
		var req models.ChatRequest
		if err := decodePayload(evt, &req); err != nil {
			return err
		}
		_, err := h.SendChat(ctx, c, req.RoomID, req.Text)
		return err

	default:
		return fmt.Errorf("%w: unknown message type %q", ErrBadRequest, evt.Type)
	}
}

// messageLabel keeps the metric label set bounded.
func messageLabel(t string) string {
	switch t {
	case models.MsgJoin, models.MsgLeave, models.MsgFeature, models.MsgPresetChange, models.MsgChat:
		return t
	default:
		return "unknown"
	}
}

func decodePayload(evt models.Event, v any) error {
	if len(evt.Payload) == 0 {
		return fmt.Errorf("%w: %s requires a payload", ErrBadRequest, evt.Type)
	}
	if err := json.Unmarshal(evt.Payload, v); err != nil {
		return fmt.Errorf("%w: invalid %s payload: %v", ErrBadRequest, evt.Type, err)
	}
	return nil
}

func (h *Hub) reportError(c *Client, msgType string, err error) {
	if errors.Is(err, ErrConnectionClosed) {
		return
	}

	code := codeFor(err)
	message := err.Error()
	fields := logrus.Fields{
		"function": "HandleMessage",
		"conn_id":  c.id,
		"type":     msgType,
		"code":     code,
		"error":    err.Error(),
	}

	switch code {
	case models.CodeMalformedFrame:
		metrics.MalformedFrames.Inc()
		logrus.WithFields(fields).Warn("Dropped malformed frame")
	case models.CodeInternal:
		message = "internal error"
		logrus.WithFields(fields).Error("Message handling failed")
	default:
		logrus.WithFields(fields).Debug("Rejected message")
	}

	c.enqueue(encode(models.EventError, models.ErrorPayload{Code: code, Message: message}))
}
