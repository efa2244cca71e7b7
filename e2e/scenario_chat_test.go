package e2e

import (
	"bytes"
	"chat-relay/ws"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestScenarioTwoUsersChat runs against a live relay. Start one locally,
// then: RELAY_ADDR=localhost:5000 go test ./e2e/...
func TestScenarioTwoUsersChat(t *testing.T) {
	assert := require.New(t)

	cfg, err := LoadConfig()
	assert.NoError(err)
	if cfg.RelayAddr == "" {
		t.Skip("RELAY_ADDR not set, skipping e2e scenario")
	}
	color.Enable = cfg.Colours

	// Given two freshly registered users
	suffix := uuid.NewString()[:8]
	tokenAlice := register(t, cfg, "alice"+suffix)
	tokenBob := register(t, cfg, "bob"+suffix)

	alice := connect(t, cfg, tokenAlice)
	defer alice.Close()
	color.Green.Println("alice connected")

	bob := connect(t, cfg, tokenBob)
	defer bob.Close()
	color.Green.Println("bob connected")

	// Alice should see bob arrive (and her own join echo before that)
	waitForEvent(t, alice, ws.EventUserConnected, "bob"+suffix)

	// When alice sends a message
	text := "hello from alice " + suffix
	data, err := json.Marshal(text)
	assert.NoError(err)
	frame, err := json.Marshal(ws.Frame{Event: ws.EventSendChatMessage, Data: data})
	assert.NoError(err)
	assert.NoError(alice.WriteMessage(websocket.TextMessage, frame))

	// Then both alice and bob receive it
	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		payload := waitForChat(t, conn)
		assert.Equal("alice"+suffix, payload.Username)
		assert.Equal(text, payload.Message)
		color.Cyan.Printf("%s received: %s\n", name, payload.Message)
	}
}

func register(t *testing.T, cfg Config, username string) string {
	t.Helper()
	assert := require.New(t)

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": "S3cure!Password",
	})
	assert.NoError(err)

	resp, err := http.Post(
		fmt.Sprintf("http://%s/auth/register", cfg.RelayAddr),
		"application/json",
		bytes.NewReader(body),
	)
	assert.NoError(err)
	defer resp.Body.Close()
	assert.Equal(http.StatusCreated, resp.StatusCode)

	var payload struct {
		Token string `json:"token"`
	}
	assert.NoError(json.NewDecoder(resp.Body).Decode(&payload))
	assert.NotEmpty(payload.Token)
	return payload.Token
}

func connect(t *testing.T, cfg Config, token string) *websocket.Conn {
	t.Helper()
	assert := require.New(t)

	wsURL := url.URL{
		Scheme:   "ws",
		Host:     cfg.RelayAddr,
		Path:     "/ws",
		RawQuery: "token=" + url.QueryEscape(token),
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	assert.NoError(err)
	return conn
}

func waitForEvent(t *testing.T, conn *websocket.Conn, eventName, username string) {
	t.Helper()
	assert := require.New(t)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		assert.NoError(conn.SetReadDeadline(deadline))
		_, raw, err := conn.ReadMessage()
		assert.NoError(err)

		frame, err := ws.DecodeFrame(raw)
		assert.NoError(err)
		if frame.Event != eventName {
			continue
		}
		var name string
		assert.NoError(json.Unmarshal(frame.Data, &name))
		if name == username {
			return
		}
	}
	t.Fatalf("never received %s for %s", eventName, username)
}

func waitForChat(t *testing.T, conn *websocket.Conn) ws.ChatPayload {
	t.Helper()
	assert := require.New(t)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		assert.NoError(conn.SetReadDeadline(deadline))
		_, raw, err := conn.ReadMessage()
		assert.NoError(err)

		frame, err := ws.DecodeFrame(raw)
		assert.NoError(err)
		if frame.Event != ws.EventChatMessage {
			continue
		}
		var payload ws.ChatPayload
		assert.NoError(json.Unmarshal(frame.Data, &payload))
		return payload
	}
	t.Fatal("never received a chat message")
	return ws.ChatPayload{}
}
