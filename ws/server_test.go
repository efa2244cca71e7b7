package ws

import (
	"chat-relay/auth"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// startTestRelay wires a full relay (in-memory store, registry, fanout)
// behind an httptest server and returns the websocket URL.
func startTestRelay(t *testing.T) string {
	t.Helper()
	auth.UseSecret([]byte("a-secret-only-for-tests"))
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	stats := observability.NewStats()
	registry := runtime.NewRegistry(time.Second, log)
	store := repositories.NewMessageRepository(db, log, nil)
	relay := runtime.NewRelay(log, registry, store, nil, stats, 16)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	fanout := workers.NewEventFanout(log, relay.Broadcasts(), registry, time.Second)
	go func() { _ = fanout.Run(ctx) }()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", NewHandler(log, relay, stats, 16).Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, wsURL, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+url.QueryEscape(token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	frame, err := DecodeFrame(raw)
	require.NoError(t, err)
	return frame
}

func Test_Connect_Without_Token(t *testing.T) {
	req := require.New(t)
	wsURL := startTestRelay(t)

	// When dialing without a token
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)

	// Then the handshake is rejected before any upgrade
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_Connect_With_Invalid_Token(t *testing.T) {
	req := require.New(t)
	wsURL := startTestRelay(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=garbage", nil)

	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_Join_Echoes_Presence_To_Self(t *testing.T) {
	req := require.New(t)
	wsURL := startTestRelay(t)

	token, err := auth.GenerateToken("u1", "alice", time.Hour)
	req.NoError(err)

	// When alice connects
	conn := dial(t, wsURL, token)

	// Then she receives her own join announcement
	frame := readFrame(t, conn)
	req.Equal(EventUserConnected, frame.Event)

	var name string
	req.NoError(json.Unmarshal(frame.Data, &name))
	req.Equal("alice", name)
}

func Test_Chat_Roundtrip_Between_Two_Users(t *testing.T) {
	req := require.New(t)
	wsURL := startTestRelay(t)

	tokenAlice, err := auth.GenerateToken("u1", "alice", time.Hour)
	req.NoError(err)
	tokenBob, err := auth.GenerateToken("u2", "bob", time.Hour)
	req.NoError(err)

	// Given alice and bob connected
	alice := dial(t, wsURL, tokenAlice)
	req.Equal(EventUserConnected, readFrame(t, alice).Event) // alice's own join

	bob := dial(t, wsURL, tokenBob)
	req.Equal(EventUserConnected, readFrame(t, bob).Event)   // bob's own join
	req.Equal(EventUserConnected, readFrame(t, alice).Event) // bob seen by alice

	// When alice sends a message
	data, err := json.Marshal("hello bob")
	req.NoError(err)
	frame, err := json.Marshal(Frame{Event: EventSendChatMessage, Data: data})
	req.NoError(err)
	req.NoError(alice.WriteMessage(websocket.TextMessage, frame))

	// Then both of them receive it, sender included
	for _, conn := range []*websocket.Conn{alice, bob} {
		received := readFrame(t, conn)
		req.Equal(EventChatMessage, received.Event)

		var payload ChatPayload
		req.NoError(json.Unmarshal(received.Data, &payload))
		req.Equal("alice", payload.Username)
		req.Equal("hello bob", payload.Message)
	}
}

func Test_Disconnect_Announces_Departure(t *testing.T) {
	req := require.New(t)
	wsURL := startTestRelay(t)

	tokenAlice, err := auth.GenerateToken("u1", "alice", time.Hour)
	req.NoError(err)
	tokenBob, err := auth.GenerateToken("u2", "bob", time.Hour)
	req.NoError(err)

	alice := dial(t, wsURL, tokenAlice)
	req.Equal(EventUserConnected, readFrame(t, alice).Event)

	bob := dial(t, wsURL, tokenBob)
	req.Equal(EventUserConnected, readFrame(t, bob).Event)
	req.Equal(EventUserConnected, readFrame(t, alice).Event)

	// When bob disconnects
	req.NoError(bob.Close())

	// Then alice is told
	frame := readFrame(t, alice)
	req.Equal(EventUserDisconnected, frame.Event)

	var name string
	req.NoError(json.Unmarshal(frame.Data, &name))
	req.Equal("bob", name)
}

func Test_Malformed_Frames_Are_Ignored(t *testing.T) {
	req := require.New(t)
	wsURL := startTestRelay(t)

	token, err := auth.GenerateToken("u1", "alice", time.Hour)
	req.NoError(err)
	conn := dial(t, wsURL, token)
	req.Equal(EventUserConnected, readFrame(t, conn).Event)

	// When sending garbage then a valid message
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	data, err := json.Marshal("still alive")
	req.NoError(err)
	frame, err := json.Marshal(Frame{Event: EventSendChatMessage, Data: data})
	req.NoError(err)
	req.NoError(conn.WriteMessage(websocket.TextMessage, frame))

	// Then the connection survived and the valid message went through
	received := readFrame(t, conn)
	req.Equal(EventChatMessage, received.Event)
}
