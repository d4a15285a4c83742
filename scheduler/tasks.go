package scheduler

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

// SweepNoShows promotes overdue confirmed bookings to no_show across
// all tenant databases.
func (s *Scheduler) SweepNoShows(ctx context.Context, now time.Time) {
	s.forEachTenantDB(ctx, "no-show-sweep", func(conn *tenants.Conn) error {
		marked, err := s.engine.SweepNoShows(ctx, conn, now)
		if err != nil {
			return err
		}
		if marked > 0 {
			s.log.Info().Str("database", conn.Name()).Int("marked", marked).Msg("no-show sweep")
		}
		return nil
	})
}

// ExtendSlotHorizon makes sure every active shop has slots generated
// through its booking-advance window.
func (s *Scheduler) ExtendSlotHorizon(ctx context.Context, now time.Time) {
	today := now.Truncate(24 * time.Hour)

	s.forEachTenantDB(ctx, "slot-horizon", func(conn *tenants.Conn) error {
		shops, err := s.activeShops(ctx, conn)
		if err != nil {
			return err
		}
		settings, err := s.advanceDaysByShop(ctx, conn)
		if err != nil {
			return err
		}

		for i := range shops {
			shop := &shops[i]
			days := settings[shop.ID]
			if days <= 0 {
				days = s.advanceDays
			}
			end := today.AddDate(0, 0, days)
			created, err := s.generator.Generate(ctx, conn, shop, today, end, now)
			if err != nil {
				s.log.Error().Err(err).Str("database", conn.Name()).Str("shop", shop.ID).
					Msg("slot generation failed for shop")
				continue
			}
			if created > 0 {
				s.log.Info().Str("shop", shop.ID).Int("created", created).Msg("extended slot horizon")
			}
		}
		return nil
	})
}

// RecomputeCapacities retunes future slot capacity from current
// staffing for every active shop.
func (s *Scheduler) RecomputeCapacities(ctx context.Context, now time.Time) {
	s.forEachTenantDB(ctx, "capacity-recompute", func(conn *tenants.Conn) error {
		shops, err := s.activeShops(ctx, conn)
		if err != nil {
			return err
		}
		for i := range shops {
			if _, err := s.generator.RecomputeCapacity(ctx, conn, &shops[i], now); err != nil {
				s.log.Error().Err(err).Str("database", conn.Name()).Str("shop", shops[i].ID).
					Msg("capacity recompute failed for shop")
			}
		}
		return nil
	})
}

// AuditSubscriptions logs tenants whose subscription has expired or
// expires within a week. Enforcement is a platform-team concern.
func (s *Scheduler) AuditSubscriptions(ctx context.Context, now time.Time) {
	platform, err := s.router.Platform(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("subscription audit cannot reach platform database")
		return
	}
	col, err := s.reg.Collection(ctx, platform, registry.Tenants)
	if err != nil {
		s.log.Error().Err(err).Msg("subscription audit cannot open tenants")
		return
	}

	cur, err := col.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		s.log.Error().Err(err).Msg("subscription audit query failed")
		return
	}
	defer cur.Close(ctx)

	today := now.Truncate(24 * time.Hour)
	soon := today.AddDate(0, 0, 7)
	for cur.Next(ctx) {
		var t models.Tenant
		if err := cur.Decode(&t); err != nil {
			continue
		}
		if t.SubscriptionExpiresAt.IsZero() {
			continue
		}
		expiry := t.SubscriptionExpiresAt.Truncate(24 * time.Hour)
		switch {
		case expiry.Before(today):
			s.log.Warn().Str("tenant", t.ID).Str("email", t.Email).
				Time("expiredAt", t.SubscriptionExpiresAt).Msg("tenant subscription expired")
		case !expiry.After(soon):
			s.log.Info().Str("tenant", t.ID).Str("email", t.Email).
				Time("expiresAt", t.SubscriptionExpiresAt).Msg("tenant subscription expires soon")
		}
	}
}

func (s *Scheduler) activeShops(ctx context.Context, conn *tenants.Conn) ([]models.Shop, error) {
	col, err := s.reg.Collection(ctx, conn, registry.Shops)
	if err != nil {
		return nil, err
	}
	cur, err := col.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var shops []models.Shop
	if err := cur.All(ctx, &shops); err != nil {
		return nil, err
	}
	return shops, nil
}

func (s *Scheduler) advanceDaysByShop(ctx context.Context, conn *tenants.Conn) (map[string]int, error) {
	col, err := s.reg.Collection(ctx, conn, registry.ShopSettings)
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
		var st models.ShopSettings
		if err := cur.Decode(&st); err != nil {
			continue
		}
		out[st.ShopID] = st.BookingAdvanceDays
	}
	return out, cur.Err()
}
