package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/auth"
	"github.com/Vasu1712/scenyx-live/internal/metrics"
	"github.com/Vasu1712/scenyx-live/internal/models"
)

// Handler authenticates WebSocket handshakes and hands accepted connections to the hub.
type Handler struct {
	hub        *Hub
	verifier   auth.Verifier
	queryParam string
	upgrader   websocket.Upgrader
}

// NewHandler returns a handler that checks origins with checkOrigin and reads the
// credential from the Authorization header or the queryParam query parameter.
func NewHandler(hub *Hub, verifier auth.Verifier, queryParam string, checkOrigin func(*http.Request) bool) *Handler {
	return &Handler{
		hub:        hub,
		verifier:   verifier,
		queryParam: queryParam,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	c := h.hub.NewClient(nil)
	c.BeginAuth()

	token := auth.TokenFromRequest(r, h.queryParam)
	id, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		c.Reject()
		reason := "invalid"
		if token == "" {
			reason = "missing"
		}
		metrics.AuthFailures.WithLabelValues(reason).Inc()
		logrus.WithFields(logrus.Fields{
			"function": "ServeHTTP",
			"remote":   r.RemoteAddr,
			"error":    err.Error(),
		}).Warn("WebSocket authentication failed")
		writeAuthError(w, err)
		return
	}
	metrics.AuthSuccess.Inc()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.Reject()
		logrus.WithFields(logrus.Fields{
			"function": "ServeHTTP",
			"remote":   r.RemoteAddr,
			"error":    err.Error(),
		}).Warn("WebSocket upgrade failed")
		return
	}
	c.conn = conn

	if err := h.hub.Activate(c, id); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	h.hub.Serve(c)
}

func writeAuthError(w http.ResponseWriter, err error) {
	message := "authentication failed"
	if !errors.Is(err, auth.ErrAuthFailed) {
		message = "unable to verify credentials"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorPayload{Code: models.CodeAuthFailed, Message: message})
}
