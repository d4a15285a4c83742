package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"trimly/auth"
	"trimly/bookings"
	"trimly/config"
	"trimly/customer"
	"trimly/engine"
	"trimly/invoices"
	"trimly/logger"
	"trimly/middleware"
	"trimly/models"
	"trimly/ratelim"
	"trimly/rdx"
	"trimly/realtime"
	"trimly/registry"
	"trimly/routes"
	"trimly/scheduler"
	"trimly/shops"
	"trimly/slots"
	"trimly/superadmin"
	"trimly/tenants"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request method, path, remote address, and duration.
func requestLogger(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found; using system environment")
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	port := cfg.Port
	if port == "" {
		port = ":5001"
	} else if port[0] != ':' {
		port = ":" + port
	}

	tenantRouter := tenants.NewRouter(cfg.MongoURI, cfg.PlatformDB, log)
	reg := registry.New()
	cache := rdx.New(cfg.RedisAddr)

	// The hub snapshots slots lazily, so the generator can be built
	// after it and still feed it.
	var gen *slots.Generator
	hub := realtime.NewHub(func(ctx context.Context, tenantID, shopID string) ([]models.Slot, error) {
		dbName, err := tenantRouter.DatabaseFor(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		conn, err := tenantRouter.Get(ctx, dbName)
		if err != nil {
			return nil, err
		}
		return gen.ListFrom(ctx, conn, tenantID, shopID, time.Now().UTC().Format("2006-01-02"))
	}, log)
	go hub.Run()

	gen = slots.NewGenerator(reg, hub, log)
	invoicer := invoices.NewGenerator(reg, log)
	eng := engine.New(reg, hub, cfg.NoShowTimeoutMinutes, log).WithInvoicer(invoicer)

	sched := scheduler.New(tenantRouter, reg, eng, gen, cfg.BookingAdvanceDays, log)
	sched.Start()

	authMW := middleware.New(cfg.JWTSecret, tenantRouter, reg)
	rateLimiter := ratelim.NewRateLimiter()

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, routes.Deps{
		Auth:       authMW,
		RateLim:    rateLimiter,
		AuthH:      auth.NewHandlers(tenantRouter, reg, cache, authMW.Secret(), log),
		Shops:      shops.NewHandlers(tenantRouter, reg, gen, cfg, log),
		Customer:   customer.NewHandlers(tenantRouter, reg, eng, gen, cache, log),
		Bookings:   bookings.NewHandlers(tenantRouter, reg, eng, invoicer, cache, log),
		SuperAdmin: superadmin.NewHandlers(tenantRouter, reg, log),
		Hub:        hub,
	})

	// CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := requestLogger(log, securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	sched.Stop()
	hub.Stop()
	if err := cache.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	tenantRouter.Close(context.Background())

	log.Info().Msg("server stopped cleanly")
}
