package engine

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"trimly/apperrors"
	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

// noShowDue reports whether a confirmed booking's grace period elapsed
// at the given instant. graceMinutes is the shop override, or zero to
// use the global default.
func noShowDue(scheduledAt time.Time, graceMinutes, defaultGrace int, now time.Time) bool {
	grace := graceMinutes
	if grace <= 0 {
		grace = defaultGrace
	}
	return scheduledAt.Add(time.Duration(grace) * time.Minute).Before(now)
}

// SweepNoShows marks overdue confirmed bookings as no-shows for one
// tenant database. The conditional transition makes the sweep
// idempotent per booking: a booking already transitioned away from
// confirmed is skipped, even when sweeps overlap.
func (e *Engine) SweepNoShows(ctx context.Context, conn *tenants.Conn, now time.Time) (int, error) {
	bookings, err := e.reg.Collection(ctx, conn, registry.Bookings)
	if err != nil {
		return 0, err
	}

	// Candidates: anything confirmed whose scheduled time has passed.
	// The per-shop grace period is applied per booking below.
	cur, err := bookings.Find(ctx, bson.M{
		"status":      models.BookingConfirmed,
		"scheduledAt": bson.M{"$lte": now},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var candidates []models.Booking
	if err := cur.All(ctx, &candidates); err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	graceByShop, err := e.noShowGraceByShop(ctx, conn)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, b := range candidates {
		if !noShowDue(b.ScheduledAt, graceByShop[b.ShopID], e.noShowTimeout, now) {
			continue
		}
		if _, err := e.MarkNoShow(ctx, conn, b.ID); err != nil {
			// Lost a race with another transition: fine, skip it.
			if errors.Is(err, apperrors.ErrInvalidTransition) || errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			e.log.Error().Err(err).Str("booking", b.ID).Str("database", conn.Name()).
				Msg("no-show sweep failed for booking")
			continue
		}
		marked++
	}
	return marked, nil
}

func (e *Engine) noShowGraceByShop(ctx context.Context, conn *tenants.Conn) (map[string]int, error) {
	col, err := e.reg.Collection(ctx, conn, registry.ShopSettings)
	if err != nil {
		return nil, err
	}
	cur, err := col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int)
	for cur.Next(ctx) {
		var s models.ShopSettings
		if err := cur.Decode(&s); err != nil {
			continue
		}
		out[s.ShopID] = s.NoShowTimeoutMinutes
	}
	return out, cur.Err()
}
