package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
)

const RoleAdmin = "admin"

// EventReady is sent once a client has joined its rooms.
const EventReady = "ready"

// Identity is what a client declares when it connects.
type Identity struct {
	Role   string
	UserID string
	Email  string
}

// Rooms lists the rooms a client with this identity joins.
func (id Identity) Rooms() []string {
	rooms := []string{domain.RoomAll}
	if id.UserID != "" {
		rooms = append(rooms, domain.UserRoom(id.UserID))
	}
	if id.Email != "" {
		rooms = append(rooms, domain.EmailRoom(id.Email))
	}
	if id.Role == RoleAdmin {
		rooms = append(rooms, domain.RoomAdmins)
	}
	return rooms
}

// Message is one frame sent to a client.
type Message struct {
	Event string `json:"event"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data"`
}

// Client is a connected subscriber.
type Client struct {
	ID       string
	Identity Identity
	send     chan Message
	once     sync.Once
}

// Messages is closed when the client is unregistered.
func (c *Client) Messages() <-chan Message { return c.send }

// HubStats tracks delivery counters
type HubStats struct {
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Clients   int64 `json:"clients"`
}

// Hub fans events out to rooms. Sends never block: a client whose buffer
// is full misses the message.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	bufferSize int

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	clients   atomic.Int64
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &Hub{rooms: make(map[string]map[*Client]struct{}), bufferSize: bufferSize}
}

// Register joins a new client to its rooms and queues the ready frame.
func (h *Hub) Register(id Identity) *Client {
	c := &Client{ID: uuid.NewString(), Identity: id, send: make(chan Message, h.bufferSize)}

	rooms := id.Rooms()
	h.mu.Lock()
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
	h.mu.Unlock()
	h.clients.Add(1)

	c.send <- Message{Event: EventReady, Data: map[string]bool{"ok": true}}

	log.Debug().
		Str("client_id", c.ID).
		Strs("rooms", rooms).
		Msg("realtime client joined")
	return c
}

// Unregister removes the client from every room and closes its channel.
func (h *Hub) Unregister(c *Client) {
	c.once.Do(func() {
		h.mu.Lock()
		for _, room := range c.Identity.Rooms() {
			if members, ok := h.rooms[room]; ok {
				delete(members, c)
				if len(members) == 0 {
					delete(h.rooms, room)
				}
			}
		}
		close(c.send)
		h.mu.Unlock()
		h.clients.Add(-1)
	})
}

// Publish implements screenshots.Broadcaster.
func (h *Hub) Publish(_ context.Context, kind domain.EventKind, p domain.Payload) error {
	h.published.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, room := range domain.Rooms(p) {
		msg := Message{Event: string(kind), Room: room, Data: p}
		for c := range h.rooms[room] {
			select {
			case c.send <- msg:
				h.delivered.Add(1)
			default:
				h.dropped.Add(1)
				log.Warn().
					Str("client_id", c.ID).
					Str("room", room).
					Str("event", string(kind)).
					Msg("realtime message dropped, client buffer full")
			}
		}
	}
	return nil
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		Published: h.published.Load(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
		Clients:   h.clients.Load(),
	}
}

// Nop is the broadcaster used when realtime delivery is disabled.
type Nop struct{}

func (Nop) Publish(_ context.Context, kind domain.EventKind, p domain.Payload) error {
	log.Debug().Str("event", string(kind)).Str("id", string(p.ID)).Msg("realtime disabled, event skipped")
	return nil
}
