package feed

import (
	"net/http"
	"strings"
	"time"

	"tibacare/pkg/auth"
	apperrors "tibacare/pkg/errors"
	httputil "tibacare/pkg/http"
	"tibacare/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type StreamHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewStreamHandler(hub *Hub, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// any origin; access is gated on the staff token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Stream upgrades to a WebSocket subscribed to the caller's dashboard topic.
// Admins get every booking unless they pass provider_id; providers always
// get their own.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	topic, err := topicFor(auth.FromContext(r.Context()), r.URL.Query().Get("provider_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stream", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := NewClient(uuid.NewString(), topic)
	h.hub.Register(client)
	h.log.Info("Feed client connected", "client_id", client.ID, "topic", topic)

	go h.writePump(client, conn)
	go h.readPump(client, conn)
}

// readPump only services control frames; clients have nothing to say.
func (h *StreamHandler) readPump(client *Client, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
		h.log.Info("Feed client disconnected", "client_id", client.ID, "topic", client.Topic)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writePump(client *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func topicFor(c auth.Capability, providerID string) (string, error) {
	if !c.IsAuthenticated() {
		return "", apperrors.Unauthorized("Authentication required")
	}
	if !c.IsStaff() {
		return "", apperrors.Forbidden("Staff role required")
	}

	providerID = strings.TrimSpace(providerID)
	if c.IsAdmin() {
		if providerID == "" {
			return TopicAll, nil
		}
		return ProviderTopic(providerID), nil
	}
	if providerID != "" && providerID != c.ProviderID {
		return "", apperrors.Forbidden("Bookings of another provider are not accessible")
	}
	return ProviderTopic(c.ProviderID), nil
}

func (h *StreamHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bookings/stream", h.Stream)
}
