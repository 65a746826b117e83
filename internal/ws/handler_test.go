package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/scenyx-live/internal/auth"
	"github.com/Vasu1712/scenyx-live/internal/models"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*testEnv, *httptest.Server) {
	t.Helper()
	env := newTestEnv(t, func(o *Options) { o.Now = time.Now })
	verifier := auth.Chain{auth.NewJWTVerifier(testSecret, nil, "")}
	srv := httptest.NewServer(NewHandler(env.hub, verifier, "token", func(*http.Request) bool { return true }))
	t.Cleanup(srv.Close)
	return env, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	token, err := auth.IssueToken(testSecret, models.Identity{UserID: userID, Username: userID}, time.Minute)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, v any) {
	t.Helper()
	msg, err := models.EncodeEvent(eventType, v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
}

func readUntil(t *testing.T, conn *websocket.Conn, eventType string) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var evt models.Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		if evt.Type == eventType {
			return evt
		}
	}
}

func TestHandlerRejectsBadToken(t *testing.T) {
	_, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	for _, query := range []string{"", "?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+query, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body models.ErrorPayload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, models.CodeAuthFailed, body.Code)
	}
}

func TestHandlerRejectsNonGet(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Post(srv.URL, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandlerEndToEnd(t *testing.T) {
	env, srv := newTestServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	send(t, alice, models.MsgJoin, models.RoomRequest{RoomID: "stage"})
	readUntil(t, alice, models.EventMemberJoined)
	send(t, bob, models.MsgJoin, models.RoomRequest{RoomID: "stage"})
	readUntil(t, bob, models.EventRoomState)

	send(t, alice, models.MsgFeature, testFrame())
	v := readUntil(t, bob, models.EventVisualFrame)
	var frame models.VisualFrame
	require.NoError(t, json.Unmarshal(v.Payload, &frame))
	assert.Equal(t, "alice", frame.UserID)
	assert.InDelta(t, 0.9, frame.Parameters.BassReaction, 1e-9)

	send(t, alice, models.MsgFeature, map[string]any{"bass": 5})
	errEvt := readUntil(t, alice, models.EventError)
	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(errEvt.Payload, &payload))
	assert.Equal(t, models.CodeMalformedFrame, payload.Code)

	send(t, alice, models.MsgChat, models.ChatRequest{RoomID: "stage", Text: "still here"})
	readUntil(t, bob, models.EventChatMessage)

	require.NoError(t, alice.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	left := readUntil(t, bob, models.EventMemberLeft)
	var presence models.PresenceEvent
	require.NoError(t, json.Unmarshal(left.Payload, &presence))
	assert.Equal(t, "alice", presence.UserID)

	assert.Eventually(t, func() bool {
		conns, _ := env.hub.Stats()
		return conns == 1
	}, 2*time.Second, 10*time.Millisecond)
}
