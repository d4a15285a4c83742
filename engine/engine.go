// Package engine owns the booking state machine and every mutation of
// slot capacity. No other component writes bookedCount or slot status;
// reservations and releases are single-document conditional updates, so
// concurrent attempts against one slot are serialized by the store.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"trimly/apperrors"
	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

// Events receives change notifications after mutations commit, never
// before.
type Events interface {
	SlotsChanged(tenantID, shopID string)
	BookingUpdated(tenantID, shopID string, booking *models.Booking)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) SlotsChanged(string, string)                    {}
func (NopEvents) BookingUpdated(string, string, *models.Booking) {}

// Invoicer consumes the completed-booking event. Opaque to the engine.
type Invoicer interface {
	BookingCompleted(ctx context.Context, conn *tenants.Conn, booking *models.Booking)
}

type Engine struct {
	reg           *registry.Registry
	events        Events
	invoicer      Invoicer
	noShowTimeout int // minutes, global fallback
	log           zerolog.Logger
}

func New(reg *registry.Registry, events Events, noShowTimeoutMinutes int, log zerolog.Logger) *Engine {
	if events == nil {
		events = NopEvents{}
	}
	return &Engine{
		reg:           reg,
		events:        events,
		noShowTimeout: noShowTimeoutMinutes,
		log:           log.With().Str("component", "engine").Logger(),
	}
}

// WithInvoicer attaches the invoicing collaborator.
func (e *Engine) WithInvoicer(inv Invoicer) *Engine {
	e.invoicer = inv
	return e
}

// GetBooking loads a single booking.
func (e *Engine) GetBooking(ctx context.Context, conn *tenants.Conn, bookingID string) (*models.Booking, error) {
	col, err := e.reg.Collection(ctx, conn, registry.Bookings)
	if err != nil {
		return nil, err
	}
	var b models.Booking
	err = col.FindOne(ctx, bson.M{"_id": bookingID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Entity: "booking"}
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// settingsFor returns the shop's settings, or nil when none exist yet.
func (e *Engine) settingsFor(ctx context.Context, conn *tenants.Conn, shopID string) (*models.ShopSettings, error) {
	col, err := e.reg.Collection(ctx, conn, registry.ShopSettings)
	if err != nil {
		return nil, err
	}
	var s models.ShopSettings
	err = col.FindOne(ctx, bson.M{"shopId": shopID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// releaseSlot gives one capacity unit back and flips a full slot to
// available. Blocked slots stay blocked. The guard on bookedCount keeps
// the count non-negative even if a release races a repair.
func (e *Engine) releaseSlot(ctx context.Context, conn *tenants.Conn, slotID string, now time.Time) error {
	col, err := e.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return err
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"_id": slotID, "bookedCount": bson.M{"$gt": 0}},
		bson.A{bson.M{"$set": bson.M{
			"bookedCount": bson.M{"$subtract": bson.A{"$bookedCount", 1}},
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.SlotBlocked}},
				models.SlotBlocked,
				bson.M{"$cond": bson.A{
					bson.M{"$lt": bson.A{
						bson.M{"$subtract": bson.A{"$bookedCount", 1}},
						"$capacity",
					}},
					models.SlotAvailable,
					models.SlotFull,
				}},
			}},
			"updatedAt": now,
		}}},
	)
	return err
}

// RecountSlot recomputes bookedCount from the bookings that hold
// capacity. This is a consistency audit only; the atomic increments on
// the reservation path are authoritative.
func (e *Engine) RecountSlot(ctx context.Context, conn *tenants.Conn, slotID string, now time.Time) (int, error) {
	bookings, err := e.reg.Collection(ctx, conn, registry.Bookings)
	if err != nil {
		return 0, err
	}
	slotsCol, err := e.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return 0, err
	}

	n, err := bookings.CountDocuments(ctx, bson.M{
		"slotId": slotID,
		"status": bson.M{"$in": models.HoldingStatuses},
	})
	if err != nil {
		return 0, err
	}

	_, err = slotsCol.UpdateOne(ctx,
		bson.M{"_id": slotID},
		bson.A{bson.M{"$set": bson.M{
			"bookedCount": n,
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.SlotBlocked}},
				models.SlotBlocked,
				bson.M{"$cond": bson.A{
					bson.M{"$gte": bson.A{n, "$capacity"}},
					models.SlotFull,
					models.SlotAvailable,
				}},
			}},
			"updatedAt": now,
		}}},
	)
	return int(n), err
}
