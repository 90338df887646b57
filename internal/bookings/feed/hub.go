// Package feed pushes live dashboard snapshots to staff over WebSockets.
// Clients subscribe to a topic and receive the latest snapshot for it on
// connect and again after every change to the booking collection.
package feed

import (
	"encoding/json"
	"sync"
	"time"

	"tibacare/pkg/logger"
	"tibacare/pkg/model"
)

const (
	TopicAll = "all"

	MessageTypeSnapshot = "snapshot"

	sendBufferSize = 256
)

// ProviderTopic is the topic carrying a single provider's dashboard.
func ProviderTopic(providerID string) string {
	return "provider:" + providerID
}

type Message struct {
	Type      string           `json:"type"`
	Topic     string           `json:"topic"`
	Timestamp time.Time        `json:"timestamp"`
	Dashboard *model.Dashboard `json:"dashboard"`
}

// Client is one connected subscriber. Send is closed by the hub on Unregister.
type Client struct {
	ID    string
	Topic string
	Send  chan []byte
}

func NewClient(id, topic string) *Client {
	return &Client{
		ID:    id,
		Topic: topic,
		Send:  make(chan []byte, sendBufferSize),
	}
}

// Hub tracks clients by topic and remembers the last payload per topic so a
// new client does not wait for the next change to see the dashboard.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	latest  map[string][]byte
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		latest:  make(map[string][]byte),
		log:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Topic] == nil {
		h.clients[client.Topic] = make(map[*Client]struct{})
	}
	h.clients[client.Topic][client] = struct{}{}

	if data, ok := h.latest[client.Topic]; ok {
		client.Send <- data
	}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := subscribers[client]; !ok {
		return
	}

	delete(subscribers, client)
	if len(subscribers) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// Broadcast stores the snapshot as the topic's latest and fans it out.
// Clients whose buffer is full miss this snapshot; the next one supersedes it.
func (h *Hub) Broadcast(topic string, dashboard model.Dashboard) {
	data, err := json.Marshal(Message{
		Type:      MessageTypeSnapshot,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Dashboard: &dashboard,
	})
	if err != nil {
		h.log.Error("Failed to marshal feed message", "topic", topic, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest[topic] = data
	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
			h.log.Warn("Feed client buffer full, snapshot skipped", "client_id", client.ID, "topic", topic)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, subscribers := range h.clients {
		n += len(subscribers)
	}
	return n
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
