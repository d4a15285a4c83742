package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/apperrors"
	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

// transition moves a booking to a new status iff its current status is
// a legal predecessor, in one conditional update. A miss is resolved to
// NotFound or InvalidTransition by reading the booking back.
func (e *Engine) transition(ctx context.Context, conn *tenants.Conn, bookingID, to string, set bson.M) (*models.Booking, error) {
	col, err := e.reg.Collection(ctx, conn, registry.Bookings)
	if err != nil {
		return nil, err
	}

	if set == nil {
		set = bson.M{}
	}
	set["status"] = to
	set["updatedAt"] = time.Now().UTC()

	var booking models.Booking
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingID, "status": bson.M{"$in": models.PredecessorsOf(to)}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&booking)

	if errors.Is(err, mongo.ErrNoDocuments) {
		var current models.Booking
		lookupErr := col.FindOne(ctx, bson.M{"_id": bookingID}).Decode(&current)
		if errors.Is(lookupErr, mongo.ErrNoDocuments) {
			return nil, &apperrors.NotFoundError{Entity: "booking"}
		}
		return nil, &apperrors.InvalidTransitionError{Current: current.Status, Attempted: to}
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Approve confirms a pending booking. Capacity is already held, so only
// the status changes.
func (e *Engine) Approve(ctx context.Context, conn *tenants.Conn, bookingID string) (*models.Booking, error) {
	b, err := e.transition(ctx, conn, bookingID, models.BookingConfirmed, nil)
	if err != nil {
		return nil, err
	}
	e.events.BookingUpdated(b.TenantID, b.ShopID, b)
	return b, nil
}

// MarkArrived records that the customer showed up.
func (e *Engine) MarkArrived(ctx context.Context, conn *tenants.Conn, bookingID string) (*models.Booking, error) {
	b, err := e.transition(ctx, conn, bookingID, models.BookingArrived,
		bson.M{"arrivedAt": time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	e.events.BookingUpdated(b.TenantID, b.ShopID, b)
	return b, nil
}

// StartService moves an arrived booking into service.
func (e *Engine) StartService(ctx context.Context, conn *tenants.Conn, bookingID string) (*models.Booking, error) {
	b, err := e.transition(ctx, conn, bookingID, models.BookingInProgress,
		bson.M{"startedAt": time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	e.events.BookingUpdated(b.TenantID, b.ShopID, b)
	return b, nil
}

// CompleteService finishes a booking and hands it to the invoicing
// collaborator. The capacity unit stays consumed: the slot's time was
// genuinely used.
func (e *Engine) CompleteService(ctx context.Context, conn *tenants.Conn, bookingID string) (*models.Booking, error) {
	b, err := e.transition(ctx, conn, bookingID, models.BookingCompleted,
		bson.M{"completedAt": time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	if e.invoicer != nil {
		e.invoicer.BookingCompleted(ctx, conn, b)
	}
	e.events.BookingUpdated(b.TenantID, b.ShopID, b)
	return b, nil
}

// MarkNoShow transitions a confirmed booking whose customer never
// arrived and releases the slot capacity it held.
func (e *Engine) MarkNoShow(ctx context.Context, conn *tenants.Conn, bookingID string) (*models.Booking, error) {
	return e.terminateAndRelease(ctx, conn, bookingID, models.BookingNoShow, nil)
}

// Reject declines a pending booking and releases its capacity.
func (e *Engine) Reject(ctx context.Context, conn *tenants.Conn, bookingID, by, reason string) (*models.Booking, error) {
	return e.terminateAndRelease(ctx, conn, bookingID, models.BookingRejected, bson.M{
		"cancelledBy":        by,
		"cancellationReason": reason,
		"cancelledAt":        time.Now().UTC(),
	})
}

// Cancel cancels a booking before service starts and releases its
// capacity.
func (e *Engine) Cancel(ctx context.Context, conn *tenants.Conn, bookingID, by, reason string) (*models.Booking, error) {
	return e.terminateAndRelease(ctx, conn, bookingID, models.BookingCancelled, bson.M{
		"cancelledBy":        by,
		"cancellationReason": reason,
		"cancelledAt":        time.Now().UTC(),
	})
}

// releasesCapacity reports whether moving a booking to this terminal
// status gives its slot unit back. A completed booking keeps the unit:
// the slot's time was genuinely used.
func releasesCapacity(to string) bool {
	switch to {
	case models.BookingCancelled, models.BookingRejected, models.BookingNoShow:
		return true
	}
	return false
}

func (e *Engine) terminateAndRelease(ctx context.Context, conn *tenants.Conn, bookingID, to string, set bson.M) (*models.Booking, error) {
	b, err := e.transition(ctx, conn, bookingID, to, set)
	if err != nil {
		return nil, err
	}

	// The transition succeeded exactly once for this booking, so the
	// paired release runs exactly once as well.
	if releasesCapacity(to) {
		if err := e.releaseSlot(ctx, conn, b.SlotID, time.Now().UTC()); err != nil {
			e.log.Error().Err(err).Str("booking", b.ID).Str("slot", b.SlotID).
				Msg("failed to release slot capacity")
		}
	}

	e.events.BookingUpdated(b.TenantID, b.ShopID, b)
	e.events.SlotsChanged(b.TenantID, b.ShopID)
	return b, nil
}

// EditPrice updates the final price within the shop's discount policy.
// Only original-price bookkeeping changes; status is untouched.
func (e *Engine) EditPrice(ctx context.Context, conn *tenants.Conn, bookingID string, newPrice float64, by, reason string) (*models.Booking, error) {
	b, err := e.GetBooking(ctx, conn, bookingID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalBookingStatus(b.Status) {
		return nil, &apperrors.InvalidTransitionError{Current: b.Status, Attempted: "price_edit"}
	}

	settings, err := e.settingsFor(ctx, conn, b.ShopID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		if !settings.AllowPriceEditing {
			return nil, fmt.Errorf("%w: editing disabled for this shop", apperrors.ErrPricePolicy)
		}
		floor := b.OriginalPrice * (1 - settings.MaxDiscountPercentage/100)
		if newPrice < floor {
			return nil, fmt.Errorf("%w: price below the shop's maximum discount", apperrors.ErrPricePolicy)
		}
	}

	col, err := e.reg.Collection(ctx, conn, registry.Bookings)
	if err != nil {
		return nil, err
	}
	var updated models.Booking
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingID},
		bson.M{"$set": bson.M{
			"finalPrice":  newPrice,
			"priceEdited": true,
			"editedBy":    by,
			"editReason":  reason,
			"updatedAt":   time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Entity: "booking"}
	}
	if err != nil {
		return nil, err
	}

	e.events.BookingUpdated(updated.TenantID, updated.ShopID, &updated)
	return &updated, nil
}
