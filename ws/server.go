package ws

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/runtime"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from arbitrary origins, same policy as the
	// HTTP CORS layer.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler upgrades authenticated HTTP requests to websocket connections and
// runs their read/write loops against the relay.
type Handler struct {
	log        *slog.Logger
	relay      *runtime.Relay
	stats      *observability.Stats
	bufferSize int
}

func NewHandler(log *slog.Logger, relay *runtime.Relay, stats *observability.Stats, bufferSize int) *Handler {
	return &Handler{log: log, relay: relay, stats: stats, bufferSize: bufferSize}
}

// Handle authenticates the token query parameter, upgrades the connection
// and joins the relay. Authentication failures are rejected before the
// upgrade so the client gets a proper HTTP status.
func (h *Handler) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrTokenMissing.Error()})
		return
	}

	claims, err := auth.VerifyToken(token)
	if err != nil {
		h.log.Warn("websocket auth rejected", "error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrTokenInvalid.Error()})
		return
	}

	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	sink := NewSink(h.bufferSize, h.stats, h.log)
	conn, err := h.relay.Join(c.Request.Context(), domain.Claims{
		ID:       claims.UserID,
		Username: claims.Username,
	}, sink)
	if err != nil {
		h.log.Error("join failed", "username", claims.Username, "error", err)
		socket.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	go h.writePump(ctx, socket, sink)
	h.readLoop(ctx, socket, conn)

	// The read loop exited: leave once, then tear down the write pump.
	h.relay.Leave(context.Background(), conn.ID)
	cancel()
	socket.Close()
}

// readLoop consumes inbound frames until the peer goes away. Running it on
// the request goroutine keeps one sender's messages in order.
func (h *Handler) readLoop(ctx context.Context, socket *websocket.Conn, conn *runtime.Connection) {
	socket.SetReadLimit(maxMessageSize)
	socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "connection", conn.ID, "error", err)
			}
			return
		}

		frame, err := DecodeFrame(raw)
		if err != nil {
			h.log.Debug("ignoring malformed frame", "connection", conn.ID, "error", err)
			continue
		}
		if frame.Event != EventSendChatMessage {
			h.log.Debug("ignoring unknown event", "event", frame.Event)
			continue
		}

		var text string
		if err = json.Unmarshal(frame.Data, &text); err != nil {
			h.log.Debug("ignoring malformed payload", "connection", conn.ID, "error", err)
			continue
		}

		if err = h.relay.Publish(ctx, conn, text); err != nil {
			h.log.Warn("publish failed", "connection", conn.ID, "error", err)
			return
		}
	}
}

// writePump serializes all writes to the socket: broadcast events from the
// sink plus keepalive pings.
func (h *Handler) writePump(ctx context.Context, socket *websocket.Conn, sink *Sink) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			socket.SetWriteDeadline(time.Now().Add(writeWait))
			socket.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case e := <-sink.Events():
			payload, err := EncodeEvent(e)
			if err != nil {
				h.log.Error("encode failed", "event", e.EventName(), "error", err)
				continue
			}
			socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err = socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
