package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventInvitationAccepted  = "invitation_accepted"
	EventRelationshipCreated = "relationship_created"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InvitationAcceptedEvent tells an inviter that one of their codes was redeemed.
type InvitationAcceptedEvent struct {
	InvitationID   uuid.UUID `json:"invitation_id"`
	RelationshipID uuid.UUID `json:"relationship_id"`
	Kind           string    `json:"kind"`
	InviteeID      uuid.UUID `json:"invitee_id"`
	AcceptedAt     time.Time `json:"accepted_at"`
}

// RelationshipCreatedEvent tells an invitee they were linked directly by email.
type RelationshipCreatedEvent struct {
	RelationshipID uuid.UUID `json:"relationship_id"`
	Kind           string    `json:"kind"`
	InviterID      uuid.UUID `json:"inviter_id"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

type userMessage struct {
	UserID uuid.UUID
	Event  Event
}

// Hub fans events out to every open stream of the addressed user. Delivery is best
// effort: a client whose buffer is full misses the event.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *userMessage
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is done, then closes every
// client's Send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if client.UserID == msg.UserID {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds client. Once the hub has stopped the client's Send channel is closed
// immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues event for userID. It never blocks; when the queue is full the event is
// dropped and false is returned.
func (h *Hub) Publish(userID uuid.UUID, event Event) bool {
	select {
	case h.broadcast <- &userMessage{UserID: userID, Event: event}:
		return true
	default:
		return false
	}
}

func InvitationAccepted(e InvitationAcceptedEvent) Event {
	return Event{Type: EventInvitationAccepted, Data: e}
}

func RelationshipCreated(e RelationshipCreatedEvent) Event {
	return Event{Type: EventRelationshipCreated, Data: e}
}
