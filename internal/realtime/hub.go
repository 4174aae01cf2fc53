package realtime

import (
	"go.uber.org/zap"

	"github.com/tarhal-app/backend/pkg/logging"
)

// Event is a payload pushed to a connected client
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types pushed over the websocket
const (
	EventMessage      = "message"
	EventNotification = "notification"
)

type targetedEvent struct {
	userID uint
	event  Event
}

// Hub tracks connected clients by user id and routes events to them.
// Delivery is best-effort: the datastore write is the source of truth and a
// disconnected or slow client simply misses the push.
type Hub struct {
	clients    map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan targetedEvent
	log        *zap.Logger
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan targetedEvent, 64),
		log:        logging.WithComponent("realtime"),
	}
}

// Run starts the hub's routing loop; call it once in its own goroutine
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]struct{})
			}
			h.clients[client.userID][client] = struct{}{}
			h.log.Debug("client registered", zap.Uint("user_id", client.userID))

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}

		case te := <-h.events:
			for client := range h.clients[te.userID] {
				select {
				case client.send <- te.event:
				default:
					h.log.Warn("client buffer full, dropping event",
						zap.Uint("user_id", te.userID), zap.String("type", te.event.Type))
				}
			}
		}
	}
}

// Push queues an event for delivery to all connections of the given user
func (h *Hub) Push(userID uint, event Event) {
	select {
	case h.events <- targetedEvent{userID: userID, event: event}:
	default:
		h.log.Warn("hub event queue full, dropping event", zap.String("type", event.Type))
	}
}
