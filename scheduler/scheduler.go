// Package scheduler runs the periodic sweeps: no-show promotion every
// minute, capacity recompute hourly, slot-horizon extension and the
// subscription audit daily. Every task takes the current time as a
// parameter so it can be driven directly in tests.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"trimly/engine"
	"trimly/registry"
	"trimly/slots"
	"trimly/tenants"
)

type Scheduler struct {
	router      *tenants.Router
	reg         *registry.Registry
	engine      *engine.Engine
	generator   *slots.Generator
	advanceDays int
	log         zerolog.Logger
	cron        *cron.Cron
}

func New(router *tenants.Router, reg *registry.Registry, eng *engine.Engine, gen *slots.Generator, advanceDays int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		router:      router,
		reg:         reg,
		engine:      eng,
		generator:   gen,
		advanceDays: advanceDays,
		log:         log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the cron entries and begins running them.
func (s *Scheduler) Start() {
	s.cron = cron.New()

	s.cron.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		s.SweepNoShows(ctx, time.Now().UTC())
	})
	s.cron.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.RecomputeCapacities(ctx, time.Now().UTC())
	})
	s.cron.AddFunc("0 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.ExtendSlotHorizon(ctx, time.Now().UTC())
	})
	s.cron.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.AuditSubscriptions(ctx, time.Now().UTC())
	})

	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop halts the cron runner and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// forEachTenantDB runs fn against every known tenant database. One
// tenant failing never aborts the others.
func (s *Scheduler) forEachTenantDB(ctx context.Context, task string, fn func(conn *tenants.Conn) error) {
	dbs, err := s.router.Known(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("task", task).Msg("cannot list tenant databases")
		return
	}

	for _, name := range dbs {
		conn, err := s.router.Get(ctx, name)
		if err != nil {
			s.log.Error().Err(err).Str("task", task).Str("database", name).Msg("cannot reach tenant database")
			continue
		}
		if err := fn(conn); err != nil {
			s.log.Error().Err(err).Str("task", task).Str("database", name).Msg("task failed for tenant")
		}
	}
}
