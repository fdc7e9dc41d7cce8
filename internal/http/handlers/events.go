package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are vetted by the CORS layer; the session token gates the
	// upgrade itself.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsStream upgrades the connection and attaches it to the broadcast
// hub. Staff and admin only; guarded in the router.
func (h *Handler) EventsStream(c *gin.Context) {
	if h.Hub == nil {
		writeError(c, http.StatusServiceUnavailable, "EVENTS_DISABLED", "Event stream not enabled", nil)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.Hub.Serve(conn)
}
