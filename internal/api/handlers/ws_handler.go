package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/darkruden/mock-interview-ai/internal/events"
	"github.com/darkruden/mock-interview-ai/internal/services"
	"github.com/darkruden/mock-interview-ai/internal/utils"
)

// WSHandler relays a session's status channel to a WebSocket client, so a
// waiting client sees PROCESSING/COMPLETED/ERROR as they happen instead of
// polling the lookup endpoint.
type WSHandler struct {
	sessions services.SessionService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

// SessionStatusWS subscribes the client to the session's status events.
// The relay is read-only: clients receive events and send nothing but
// pings.
func (h *WSHandler) SessionStatusWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionStatusWS", "missing session_id", nil))
		return
	}

	// Verify the session exists before holding a connection open for it.
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, events.StatusChannel(sessionID))
	defer pubsub.Close()

	// reader: detect client disconnect, keep the read deadline fresh on
	// pongs.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	relayStatus(ctx, conn, pubsub.Channel(), readDone)
}

// statusConn is the slice of *websocket.Conn the relay writes to.
type statusConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// relayStatus forwards pub/sub payloads as-is (each is the publisher's
// JSON) until the client disconnects, the request ends, or the
// subscription closes. Selecting over the message channel keeps a quiet
// session from pinning the relay past disconnect.
func relayStatus(ctx context.Context, conn statusConn, msgs <-chan *redis.Message, readDone <-chan struct{}) {
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m.Payload)); err != nil {
				return
			}
		}
	}
}
