package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
)

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case m := <-c.Messages():
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestPublishReachesRooms(t *testing.T) {
	h := NewHub(8)
	owner := h.Register(Identity{UserID: "u1"})
	byEmail := h.Register(Identity{Email: "u1@x.io"})
	admin := h.Register(Identity{Role: RoleAdmin})
	stranger := h.Register(Identity{UserID: "u2"})

	for _, c := range []*Client{owner, byEmail, admin, stranger} {
		ready := drain(c)
		require.Len(t, ready, 1)
		assert.Equal(t, EventReady, ready[0].Event)
	}

	p := domain.Payload{ID: "s1", User: "u1", Email: "u1@x.io"}
	require.NoError(t, h.Publish(context.Background(), domain.EventNew, p))

	rooms := func(ms []Message) []string {
		var r []string
		for _, m := range ms {
			assert.Equal(t, string(domain.EventNew), m.Event)
			r = append(r, m.Room)
		}
		return r
	}
	assert.Equal(t, []string{"all", "user:u1"}, rooms(drain(owner)))
	assert.Equal(t, []string{"all", "email:u1@x.io"}, rooms(drain(byEmail)))
	assert.Equal(t, []string{"all", "admins"}, rooms(drain(admin)))
	assert.Equal(t, []string{"all"}, rooms(drain(stranger)))
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub(1)
	c := h.Register(Identity{})
	// buffer holds the ready frame already
	require.NoError(t, h.Publish(context.Background(), domain.EventNew, domain.Payload{ID: "x"}))
	assert.EqualValues(t, 1, h.Stats().Dropped)
	assert.Len(t, drain(c), 1)
}

func TestUnregisterClosesAndIsIdempotent(t *testing.T) {
	h := NewHub(4)
	c := h.Register(Identity{UserID: "u1"})
	h.Unregister(c)
	h.Unregister(c)

	drain(c)
	_, ok := <-c.Messages()
	assert.False(t, ok)
	assert.EqualValues(t, 0, h.Stats().Clients)
	require.NoError(t, h.Publish(context.Background(), domain.EventNew, domain.Payload{User: "u1"}))
}

func TestNopNeverFails(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), domain.EventNew, domain.Payload{}))
}

func TestIdentityDemotesUnverifiedAdmin(t *testing.T) {
	h := NewHandler(NewHub(1), nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/ws?role=admin&userId=u1", nil)
	assert.Equal(t, Identity{UserID: "u1"}, h.IdentityFrom(r))

	h.IsAdmin = func(*http.Request) bool { return true }
	assert.Equal(t, RoleAdmin, h.IdentityFrom(r).Role)
}

func TestWebsocketReceivesReadyAndEvents(t *testing.T) {
	hub := NewHub(8)
	srv := httptest.NewServer(NewHandler(hub, nil, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ready Message
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, EventReady, ready.Event)

	require.NoError(t, hub.Publish(context.Background(), domain.EventSoftDeleted, domain.Payload{ID: "s1", User: "u1"}))

	var got []string
	for i := 0; i < 2; i++ {
		var m Message
		require.NoError(t, conn.ReadJSON(&m))
		assert.Equal(t, string(domain.EventSoftDeleted), m.Event)
		got = append(got, m.Room)
	}
	assert.ElementsMatch(t, []string{"all", "user:u1"}, got)
}
