package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; the reverse proxy enforces origin policy.
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// ServeWS subscribes a websocket client to a (tenant, shop) room. The
// client receives a full slot snapshot immediately, then incremental
// events until it disconnects or unsubscribes by closing.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenantId")
	shopID := ps.ByName("shopId")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{
		send: make(chan []byte, 16),
		room: RoomKey(tenantID, shopID),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	// Late joiners get the current state before any deltas.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	snapshot, err := h.slotUpdatesPayload(ctx, tenantID, shopID)
	cancel()
	if err == nil {
		select {
		case c.send <- snapshot:
		default:
		}
	} else {
		h.log.Warn().Err(err).Str("shop", shopID).Msg("initial snapshot failed")
	}

	go h.writePump(conn, c)
	h.readPump(conn, c)
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Clients only listen; reads just detect disconnects.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
