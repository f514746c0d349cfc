package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialFeed stands up a websocket endpoint that registers its server side
// with the hub, and returns the client side.
func dialFeed(t *testing.T, hub *Hub, player uuid.UUID) *websocket.Conn {
	t.Helper()
	up := websocket.Upgrader{}
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := hub.Register(player, ws)
		close(registered)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				hub.Unregister(player, conn)
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	<-registered
	return client
}

func TestHubSendManyWriters(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	player := uuid.New()
	client := dialFeed(t, hub, player)

	const writers = 64
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.True(t, hub.Send(player, Event{Type: "order_created", Amount: n}))
		}(i)
	}

	seen := make(map[int]bool)
	for len(seen) < writers {
		var ev Event
		require.NoError(t, client.ReadJSON(&ev))
		assert.Equal(t, "order_created", ev.Type)
		seen[ev.Amount] = true
	}
	wg.Wait()
}

func TestHubSendOffline(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	assert.False(t, hub.Send(uuid.New(), Event{Type: "mail"}))
	assert.False(t, hub.Online(uuid.New()))
}
