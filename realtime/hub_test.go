package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trimly/models"
)

func newTestHub(snapshot SnapshotFunc) *Hub {
	return NewHub(snapshot, zerolog.Nop())
}

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := newTestHub(nil)
	go hub.Run()
	defer hub.Stop()

	c := &client{
		send: make(chan []byte, 10),
		room: RoomKey("t1", "s1"),
	}
	hub.register <- c

	data := []byte(`{"event":"slot-updates"}`)
	hub.broadcast <- broadcastMsg{room: c.room, data: data}

	select {
	case got := <-c.send:
		if string(got) != string(data) {
			t.Fatalf("expected %s, got %s", data, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- c
}

func TestSlotsChangedSendsSnapshot(t *testing.T) {
	slots := []models.Slot{
		{ID: "sl1", TenantID: "t1", ShopID: "s1", Date: "2025-06-01", StartTime: "09:00", EndTime: "09:30"},
	}
	hub := newTestHub(func(ctx context.Context, tenantID, shopID string) ([]models.Slot, error) {
		if tenantID != "t1" || shopID != "s1" {
			t.Errorf("snapshot called for %s/%s", tenantID, shopID)
		}
		return slots, nil
	})
	go hub.Run()
	defer hub.Stop()

	c := &client{send: make(chan []byte, 10), room: RoomKey("t1", "s1")}
	hub.register <- c

	// registration goes through the hub goroutine; wait for it to land
	for i := 0; i < 100 && !hub.hasSubscribers(c.room); i++ {
		time.Sleep(5 * time.Millisecond)
	}

	hub.SlotsChanged("t1", "s1")

	select {
	case got := <-c.send:
		var ev slotUpdatesEvent
		if err := json.Unmarshal(got, &ev); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if ev.Event != "slot-updates" || !ev.Success {
			t.Fatalf("unexpected event envelope: %+v", ev)
		}
		if len(ev.Slots) != 1 || ev.Slots[0].ID != "sl1" {
			t.Fatalf("unexpected slots: %+v", ev.Slots)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for slot-updates")
	}
}

func TestSlotsChangedSkipsEmptyRoom(t *testing.T) {
	called := false
	hub := newTestHub(func(ctx context.Context, tenantID, shopID string) ([]models.Slot, error) {
		called = true
		return nil, nil
	})
	go hub.Run()
	defer hub.Stop()

	hub.SlotsChanged("t1", "nobody-listening")
	if called {
		t.Fatal("snapshot should not run for a room with no subscribers")
	}
}

func TestBookingUpdatedSendsDeltaThenSnapshot(t *testing.T) {
	hub := newTestHub(func(ctx context.Context, tenantID, shopID string) ([]models.Slot, error) {
		return []models.Slot{}, nil
	})
	go hub.Run()
	defer hub.Stop()

	c := &client{send: make(chan []byte, 10), room: RoomKey("t1", "s1")}
	hub.register <- c
	for i := 0; i < 100 && !hub.hasSubscribers(c.room); i++ {
		time.Sleep(5 * time.Millisecond)
	}

	booking := &models.Booking{ID: "b1", TenantID: "t1", ShopID: "s1", Status: models.BookingConfirmed}
	hub.BookingUpdated("t1", "s1", booking)

	var events []string
	for len(events) < 2 {
		select {
		case got := <-c.send:
			var env struct {
				Event string `json:"event"`
			}
			if err := json.Unmarshal(got, &env); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			events = append(events, env.Event)
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout, got events %v", events)
		}
	}
	if events[0] != "booking-updated" || events[1] != "slot-updates" {
		t.Fatalf("expected booking-updated then slot-updates, got %v", events)
	}
}

func TestRoomKey(t *testing.T) {
	if got := RoomKey("t1", "s9"); got != "shop-t1-s9" {
		t.Fatalf("RoomKey = %q", got)
	}
}
