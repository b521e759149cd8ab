package service

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"

	"github.com/gofiber/contrib/websocket"
)

// Publisher fans sanitized session/room snapshots out to every subscriber
// of a topic. Satisfied by *WSHub; tests use a recorder.
type Publisher interface {
	Publish(topic string, event *model.WSEvent)
}

// Topic names for the pub/sub channel.
func GameTopic(gameID string) string  { return "game-" + gameID }
func RoomTopic(gamePin string) string { return "room-" + gamePin }

// NewEvent wraps a payload in a typed event envelope.
func NewEvent(eventType string, payload any) *model.WSEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		return &model.WSEvent{Type: eventType}
	}
	return &model.WSEvent{Type: eventType, Data: data}
}

// NewErrorEvent builds the single descriptive error message sent back to
// a caller on failure.
func NewErrorEvent(message string) *model.WSEvent {
	return NewEvent("errorMessage", model.WSError{Error: message})
}

type WSClient struct {
	Conn    *websocket.Conn
	GuestID string
	Name    string
	Send    chan []byte
}

// WSHub tracks connected clients and their topic subscriptions. A client
// subscribes to a game or room topic and receives every snapshot
// published there until it unsubscribes or disconnects.
type WSHub struct {
	clients    map[*WSClient]bool
	topics     map[string]map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	mu         sync.RWMutex
	done       chan struct{}
}

func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		topics:     make(map[string]map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
	}
}

func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: %s connected (total: %d)", client.Name, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for _, subs := range h.topics {
					delete(subs, client)
				}
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: %s disconnected (total: %d)", client.Name, total)

		case <-h.done:
			return
		}
	}
}

func (h *WSHub) Shutdown() {
	close(h.done)
}

func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

func (h *WSHub) Subscribe(client *WSClient, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*WSClient]bool)
		h.topics[topic] = subs
	}
	subs[client] = true
}

func (h *WSHub) Unsubscribe(client *WSClient, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish sends an event to every subscriber of a topic. Slow clients are
// skipped rather than blocking the hub.
func (h *WSHub) Publish(topic string, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[topic] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// SendTo delivers an event to a single client (replies and errors). The
// membership check under the lock keeps the send ordered against the
// channel close in Run's unregister branch; a client that already
// disconnected is silently skipped.
func (h *WSHub) SendTo(client *WSClient, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

func (h *WSHub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
