package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler upgrades a request to a websocket and streams hub messages to it.
// Identity comes from the role, userId and email query parameters.
type Handler struct {
	Hub            *Hub
	AllowedOrigins []string
	// IsAdmin vets a declared admin role. Nil means nobody gets the admin room.
	IsAdmin func(*http.Request) bool

	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, allowedOrigins []string, isAdmin func(*http.Request) bool) *Handler {
	h := &Handler{Hub: hub, AllowedOrigins: allowedOrigins, IsAdmin: isAdmin}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range h.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// IdentityFrom reads the declared identity, demoting unverified admins.
func (h *Handler) IdentityFrom(r *http.Request) Identity {
	q := r.URL.Query()
	id := Identity{Role: q.Get("role"), UserID: q.Get("userId"), Email: q.Get("email")}
	if id.Role == RoleAdmin && (h.IsAdmin == nil || !h.IsAdmin(r)) {
		id.Role = ""
	}
	return id
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := h.IdentityFrom(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := h.Hub.Register(id)
	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// readPump only drains control frames; clients never send data.
func (h *Handler) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		h.Hub.Unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("client_id", c.ID).Msg("websocket closed")
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
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
