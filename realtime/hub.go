// Package realtime fans slot and booking deltas out to websocket
// observers subscribed to a (tenant, shop) room. The hub is injected
// into the booking engine and slot generator; nothing reaches it
// through global state.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trimly/models"
)

// SnapshotFunc lists a shop's current slots (today onward) for the
// subscribe-time snapshot and for slot-updates events. Injected so the
// hub stays storage-agnostic.
type SnapshotFunc func(ctx context.Context, tenantID, shopID string) ([]models.Slot, error)

type client struct {
	send chan []byte
	room string
}

type broadcastMsg struct {
	room string
	data []byte
}

type Hub struct {
	rooms      map[string]map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan broadcastMsg
	done       chan struct{}
	stopOnce   sync.Once

	mu       sync.Mutex
	snapshot SnapshotFunc
	log      zerolog.Logger
}

// RoomKey builds the channel name for a (tenant, shop) pair.
func RoomKey(tenantID, shopID string) string {
	return "shop-" + tenantID + "-" + shopID
}

func NewHub(snapshot SnapshotFunc, log zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan broadcastMsg, 64),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		log:        log.With().Str("component", "realtime").Logger(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.room] == nil {
				h.rooms[c.room] = make(map[*client]bool)
			}
			h.rooms[c.room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.rooms[c.room]; conns != nil && conns[c] {
				delete(conns, c)
				close(c.send)
				if len(conns) == 0 {
					delete(h.rooms, c.room)
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.room] {
				select {
				case c.send <- m.data:
				default:
					// Slow observer: drop it rather than block the hub.
					close(c.send)
					delete(h.rooms[m.room], c)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for room, conns := range h.rooms {
				for c := range conns {
					close(c.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) hasSubscribers(room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room]) > 0
}

func (h *Hub) publish(room string, data []byte) {
	select {
	case h.broadcast <- broadcastMsg{room: room, data: data}:
	case <-h.done:
	}
}

type slotUpdatesEvent struct {
	Event     string        `json:"event"`
	Success   bool          `json:"success"`
	Slots     []models.Slot `json:"slots"`
	Timestamp string        `json:"timestamp"`
}

type bookingUpdatedEvent struct {
	Event     string          `json:"event"`
	Success   bool            `json:"success"`
	Booking   *models.Booking `json:"booking"`
	Timestamp string          `json:"timestamp"`
}

func (h *Hub) slotUpdatesPayload(ctx context.Context, tenantID, shopID string) ([]byte, error) {
	slots, err := h.snapshot(ctx, tenantID, shopID)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	return json.Marshal(slotUpdatesEvent{
		Event:     "slot-updates",
		Success:   true,
		Slots:     slots,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SlotsChanged pushes the full current slot list for a shop to its
// room. Callers invoke it only after the underlying mutation committed.
func (h *Hub) SlotsChanged(tenantID, shopID string) {
	room := RoomKey(tenantID, shopID)
	if !h.hasSubscribers(room) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := h.slotUpdatesPayload(ctx, tenantID, shopID)
	if err != nil {
		h.log.Error().Err(err).Str("shop", shopID).Msg("slot snapshot failed")
		return
	}
	h.publish(room, data)
}

// BookingUpdated pushes one booking delta, then refreshes the room's
// slot list.
func (h *Hub) BookingUpdated(tenantID, shopID string, booking *models.Booking) {
	room := RoomKey(tenantID, shopID)
	if h.hasSubscribers(room) {
		data, err := json.Marshal(bookingUpdatedEvent{
			Event:     "booking-updated",
			Success:   true,
			Booking:   booking,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		if err == nil {
			h.publish(room, data)
		}
	}
	h.SlotsChanged(tenantID, shopID)
}
