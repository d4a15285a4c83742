package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/apperrors"
	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

// ReserveRequest describes one reservation attempt.
type ReserveRequest struct {
	TenantID    string
	ShopID      string
	SlotID      string
	ServiceID   string
	CustomerID  string
	StaffID     string
	BookingType string // online or walkin
	Notes       string
	Priority    string
}

// Reserve atomically claims one capacity unit on the slot and creates
// the booking. The slot update checks availability and increments
// bookedCount in a single round trip: of N concurrent attempts against
// K remaining units, exactly K succeed. If the booking insert fails
// afterwards the claimed unit is released, so no partial state
// persists.
func (e *Engine) Reserve(ctx context.Context, conn *tenants.Conn, req ReserveRequest) (*models.Booking, error) {
	now := time.Now().UTC()

	services, err := e.reg.Collection(ctx, conn, registry.Services)
	if err != nil {
		return nil, err
	}
	var service models.Service
	err = services.FindOne(ctx, bson.M{"_id": req.ServiceID, "shopId": req.ShopID, "isActive": true}).Decode(&service)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Entity: "service"}
	}
	if err != nil {
		return nil, err
	}

	settings, err := e.settingsFor(ctx, conn, req.ShopID)
	if err != nil {
		return nil, err
	}

	slot, err := e.claimSlot(ctx, conn, req.ShopID, req.SlotID, now)
	if err != nil {
		return nil, err
	}

	status := models.BookingConfirmed
	if req.BookingType == models.BookingOnline && settings != nil && settings.RequireAdminApproval {
		status = models.BookingPending
	}

	scheduledAt, err := slot.StartsAt()
	if err != nil {
		scheduledAt = now
	}

	bookingType := req.BookingType
	if bookingType == "" {
		bookingType = models.BookingOnline
	}
	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}

	booking := &models.Booking{
		ID:            uuid.NewString(),
		TenantID:      req.TenantID,
		ShopID:        req.ShopID,
		SlotID:        slot.ID,
		SlotDate:      slot.Date,
		CustomerID:    req.CustomerID,
		ServiceID:     service.ID,
		StaffID:       req.StaffID,
		BookingType:   bookingType,
		Status:        status,
		OriginalPrice: service.Price,
		FinalPrice:    service.Price,
		ScheduledAt:   scheduledAt,
		Notes:         req.Notes,
		Priority:      priority,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	bookings, err := e.reg.Collection(ctx, conn, registry.Bookings)
	if err != nil {
		e.rollbackClaim(conn, slot.ID)
		return nil, err
	}
	if _, err := bookings.InsertOne(ctx, booking); err != nil {
		e.rollbackClaim(conn, slot.ID)
		return nil, err
	}

	e.events.BookingUpdated(req.TenantID, req.ShopID, booking)
	e.events.SlotsChanged(req.TenantID, req.ShopID)
	return booking, nil
}

// claimSlot performs the conditional check-and-increment. The filter
// only matches an available slot with spare capacity; the pipeline
// bumps bookedCount and flips status to full when the new count
// reaches capacity.
func (e *Engine) claimSlot(ctx context.Context, conn *tenants.Conn, shopID, slotID string, now time.Time) (*models.Slot, error) {
	col, err := e.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return nil, err
	}

	newCount := bson.M{"$add": bson.A{"$bookedCount", 1}}
	var slot models.Slot
	err = col.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    slotID,
			"shopId": shopID,
			"status": models.SlotAvailable,
			"$expr":  bson.M{"$lt": bson.A{"$bookedCount", "$capacity"}},
		},
		bson.A{bson.M{"$set": bson.M{
			"bookedCount": newCount,
			"status": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{newCount, "$capacity"}},
				models.SlotFull,
				models.SlotAvailable,
			}},
			"updatedAt": now,
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)

	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a missing slot from a full or blocked one.
		var existing models.Slot
		lookupErr := col.FindOne(ctx, bson.M{"_id": slotID, "shopId": shopID}).Decode(&existing)
		return nil, claimMissError(lookupErr)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// claimMissError resolves an atomic-claim miss. A nil lookup error
// means the slot exists but had no free unit; a failed lookup is
// reported as itself, never as a capacity condition.
func claimMissError(lookupErr error) error {
	switch {
	case errors.Is(lookupErr, mongo.ErrNoDocuments):
		return &apperrors.NotFoundError{Entity: "slot"}
	case lookupErr != nil:
		return lookupErr
	}
	return apperrors.ErrCapacityExceeded
}

// rollbackClaim releases a claimed unit when the booking insert failed.
// Best effort on a fresh context: the claim must not leak even if the
// request context is already gone.
func (e *Engine) rollbackClaim(conn *tenants.Conn, slotID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.releaseSlot(ctx, conn, slotID, time.Now().UTC()); err != nil {
		e.log.Error().Err(err).Str("slot", slotID).Msg("failed to release claimed slot")
	}
}
