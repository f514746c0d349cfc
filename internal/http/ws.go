package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/acesurvival/jobboard/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedHandler upgrades GET /feed to a websocket and keeps the connection
// registered with the hub for the life of the socket. Queued mail is
// flushed to the player as soon as the connection is up.
type FeedHandler struct {
	Hub    *notify.Hub
	Notify *notify.Notifier
	Log    zerolog.Logger
}

func (f *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-Player-Id header")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.Log.Debug().Err(err).Msg("feed upgrade failed")
		return
	}

	// Hub events may fire the moment the connection registers, so all
	// writes, including the mail flush below, go through the serialized
	// Conn the hub hands back.
	conn := f.Hub.Register(player, ws)
	defer func() {
		f.Hub.Unregister(player, conn)
		conn.Close()
	}()

	mail, err := f.Notify.DeliverMail(r.Context(), player)
	if err != nil {
		f.Log.Warn().Err(err).
			Str("player", player.String()).
			Msg("mail delivery on connect failed")
	}
	for _, m := range mail {
		ev := notify.Event{Type: "mail", Message: m.Message}
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}

	// Drain the read side so pings and close frames are processed; the
	// feed is push-only and inbound payloads are ignored.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
