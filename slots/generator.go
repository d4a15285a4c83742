// Package slots derives bookable time slots from a shop's working
// hours, slot duration and active staffing.
package slots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/apperrors"
	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

// Events receives change notifications after slot mutations commit.
type Events interface {
	SlotsChanged(tenantID, shopID string)
}

type Generator struct {
	reg    *registry.Registry
	events Events
	log    zerolog.Logger
}

func NewGenerator(reg *registry.Registry, events Events, log zerolog.Logger) *Generator {
	return &Generator{
		reg:    reg,
		events: events,
		log:    log.With().Str("component", "slots").Logger(),
	}
}

// activeStaffCount counts active staff for a shop; a shop with no staff
// still gets capacity 1.
func (g *Generator) activeStaffCount(ctx context.Context, conn *tenants.Conn, shopID string) (int, error) {
	staff, err := g.reg.Collection(ctx, conn, registry.StaffProfiles)
	if err != nil {
		return 0, err
	}
	n, err := staff.CountDocuments(ctx, bson.M{"shopId": shopID, "isActive": true})
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 1, nil
	}
	return int(n), nil
}

// Generate upserts slots for every open day in [from, to]. Existing
// slots for a (shop, date, startTime) key are left untouched, so
// re-running never disturbs bookedCount or bookings.
func (g *Generator) Generate(ctx context.Context, conn *tenants.Conn, shop *models.Shop, from, to time.Time, now time.Time) (int, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return 0, err
	}

	capacity, err := g.activeStaffCount(ctx, conn, shop.ID)
	if err != nil {
		return 0, err
	}

	created := 0
	changed := false
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		hours, ok := shop.WorkingHours.ForDay(d.Weekday())
		if !ok || !hours.IsOpen || hours.Start == "" || hours.End == "" {
			continue
		}

		windows, err := dayWindows(hours.Start, hours.End, shop.SlotDuration)
		if err != nil {
			g.log.Warn().Err(err).Str("shop", shop.ID).Str("date", d.Format("2006-01-02")).
				Msg("skipping day with bad working hours")
			continue
		}

		date := d.Format("2006-01-02")
		for _, w := range windows {
			res, err := col.UpdateOne(ctx,
				bson.M{"shopId": shop.ID, "date": date, "startTime": w.Start},
				bson.M{"$setOnInsert": models.Slot{
					ID:          uuid.NewString(),
					TenantID:    shop.TenantID,
					ShopID:      shop.ID,
					Date:        date,
					StartTime:   w.Start,
					EndTime:     w.End,
					Capacity:    capacity,
					MaxCapacity: capacity,
					BookedCount: 0,
					Status:      models.SlotAvailable,
					CreatedAt:   now,
					UpdatedAt:   now,
				}},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return created, err
			}
			if res.UpsertedCount > 0 {
				created++
				changed = true
			}
		}
	}

	if changed && g.events != nil {
		g.events.SlotsChanged(shop.TenantID, shop.ID)
	}
	return created, nil
}

// RecomputeCapacity retunes capacity and maxCapacity from current
// staffing for future slots that are neither full nor blocked. Counts
// and already-full slots are never touched retroactively.
func (g *Generator) RecomputeCapacity(ctx context.Context, conn *tenants.Conn, shop *models.Shop, now time.Time) (int64, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return 0, err
	}

	capacity, err := g.activeStaffCount(ctx, conn, shop.ID)
	if err != nil {
		return 0, err
	}

	res, err := col.UpdateMany(ctx,
		bson.M{
			"shopId": shop.ID,
			"date":   bson.M{"$gte": now.Format("2006-01-02")},
			"status": models.SlotAvailable,
			// Keep slots already at or above the new capacity intact so
			// bookedCount <= capacity continues to hold.
			"bookedCount": bson.M{"$lt": capacity},
		},
		bson.M{"$set": bson.M{
			"capacity":    capacity,
			"maxCapacity": capacity,
			"updatedAt":   now,
		}},
	)
	if err != nil {
		return 0, err
	}

	if res.ModifiedCount > 0 && g.events != nil {
		g.events.SlotsChanged(shop.TenantID, shop.ID)
	}
	return res.ModifiedCount, nil
}

// ListFrom returns a shop's slots from a date onward, ordered by date
// and start time. Used for the realtime snapshot and the availability
// endpoints.
func (g *Generator) ListFrom(ctx context.Context, conn *tenants.Conn, tenantID, shopID, fromDate string) ([]models.Slot, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return nil, err
	}

	cur, err := col.Find(ctx,
		bson.M{"tenantId": tenantID, "shopId": shopID, "date": bson.M{"$gte": fromDate}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Slot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Available returns bookable slots in a date range.
func (g *Generator) Available(ctx context.Context, conn *tenants.Conn, tenantID, shopID, fromDate, toDate string) ([]models.Slot, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return nil, err
	}

	cur, err := col.Find(ctx,
		bson.M{
			"tenantId": tenantID,
			"shopId":   shopID,
			"date":     bson.M{"$gte": fromDate, "$lte": toDate},
			"status":   models.SlotAvailable,
			"$expr":    bson.M{"$lt": bson.A{"$bookedCount", "$capacity"}},
		},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Slot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Block marks a slot administratively unbookable regardless of counts.
func (g *Generator) Block(ctx context.Context, conn *tenants.Conn, slotID, by, reason string, now time.Time) (*models.Slot, error) {
	return g.setBlock(ctx, conn, slotID, bson.M{"$set": bson.M{
		"status":        models.SlotBlocked,
		"blockedBy":     by,
		"blockedReason": reason,
		"updatedAt":     now,
	}})
}

// Unblock lifts an administrative block; status is recomputed from the
// current counts.
func (g *Generator) Unblock(ctx context.Context, conn *tenants.Conn, slotID string, now time.Time) (*models.Slot, error) {
	return g.setBlock(ctx, conn, slotID, bson.A{bson.M{"$set": bson.M{
		"status": bson.M{"$cond": bson.A{
			bson.M{"$gte": bson.A{"$bookedCount", "$capacity"}},
			models.SlotFull,
			models.SlotAvailable,
		}},
		"blockedBy":     "",
		"blockedReason": "",
		"updatedAt":     now,
	}}})
}

func (g *Generator) setBlock(ctx context.Context, conn *tenants.Conn, slotID string, update interface{}) (*models.Slot, error) {
	col, err := g.reg.Collection(ctx, conn, registry.Slots)
	if err != nil {
		return nil, err
	}

	var slot models.Slot
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": slotID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)
	if err != nil {
		return nil, blockResultError(err)
	}

	if g.events != nil {
		g.events.SlotsChanged(slot.TenantID, slot.ShopID)
	}
	return &slot, nil
}

// blockResultError keeps a genuine driver failure distinct from the
// slot simply not existing.
func blockResultError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &apperrors.NotFoundError{Entity: "slot"}
	}
	return err
}
