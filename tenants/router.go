// Package tenants routes every operation to the correct tenant
// database. The Router is the only authority for which physical
// database a tenant's data lives in.
package tenants

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/singleflight"

	"trimly/apperrors"
	"trimly/models"
)

// Conn is a live handle bound to one logical database. Handles are
// shared by all concurrent requests for a tenant and stay open until
// Router.Close.
type Conn struct {
	name   string
	client *mongo.Client
	db     *mongo.Database
}

func (c *Conn) Name() string { return c.name }

func (c *Conn) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Dialer opens a client for a URI. Swapped out in tests.
type Dialer func(ctx context.Context, uri string) (*mongo.Client, error)

// Router lazily opens, caches and reuses one connection per database
// name. Concurrent first-time lookups for the same name collapse into a
// single establishment via the singleflight group.
type Router struct {
	uri        string
	platformDB string
	dial       Dialer
	log        zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*Conn
	group singleflight.Group
}

func NewRouter(uri, platformDB string, log zerolog.Logger) *Router {
	return &Router{
		uri:        uri,
		platformDB: platformDB,
		dial:       defaultDial,
		log:        log.With().Str("component", "tenants").Logger(),
		conns:      make(map[string]*Conn),
	}
}

// WithDialer overrides how physical connections are established.
func (r *Router) WithDialer(d Dialer) *Router {
	r.dial = d
	return r
}

func defaultDial(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping with bounded exponential backoff so a briefly unreachable
	// store does not fail the first caller.
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 15 * time.Second
	err = backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Get returns the live handle for a database name, establishing it on
// first use. Repeated calls return the same handle.
func (r *Router) Get(ctx context.Context, dbName string) (*Conn, error) {
	r.mu.RLock()
	conn, ok := r.conns[dbName]
	r.mu.RUnlock()
	if ok {
		return conn, nil
	}

	v, err, _ := r.group.Do(dbName, func() (interface{}, error) {
		// Another caller may have won the race before we queued.
		r.mu.RLock()
		existing, ok := r.conns[dbName]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		client, err := r.dial(ctx, r.uri)
		if err != nil {
			return nil, &apperrors.ConnectionError{Database: dbName, Err: err}
		}

		conn := &Conn{name: dbName, client: client, db: client.Database(dbName)}
		r.mu.Lock()
		r.conns[dbName] = conn
		r.mu.Unlock()

		r.log.Info().Str("database", dbName).Msg("connection established")
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conn), nil
}

// Platform returns the handle for the platform database, which holds
// tenants, the database map and platform admin accounts.
func (r *Router) Platform(ctx context.Context) (*Conn, error) {
	return r.Get(ctx, r.platformDB)
}

// Known lists every tenant database name from the platform mapping.
// Scheduler sweeps iterate this list.
func (r *Router) Known(ctx context.Context) ([]string, error) {
	platform, err := r.Platform(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := platform.Collection("client_database_map").Find(ctx, bson.M{})
	if err != nil {
		return nil, &apperrors.ConnectionError{Database: r.platformDB, Err: err}
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var m models.ClientDatabaseMap
		if err := cur.Decode(&m); err != nil {
			continue
		}
		names = append(names, m.DatabaseName)
	}
	return names, cur.Err()
}

// DatabaseFor resolves a tenant ID to its database name via the
// platform mapping.
func (r *Router) DatabaseFor(ctx context.Context, tenantID string) (string, error) {
	platform, err := r.Platform(ctx)
	if err != nil {
		return "", err
	}

	var m models.ClientDatabaseMap
	err = platform.Collection("client_database_map").
		FindOne(ctx, bson.M{"tenantId": tenantID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return "", &apperrors.NotFoundError{Entity: "tenant database"}
	}
	if err != nil {
		return "", &apperrors.ConnectionError{Database: r.platformDB, Err: err}
	}
	return m.DatabaseName, nil
}

// Close disconnects every cached handle. Called once at shutdown, after
// the HTTP server and scheduler have stopped.
func (r *Router) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[*mongo.Client]bool)
	for name, conn := range r.conns {
		if seen[conn.client] {
			continue
		}
		seen[conn.client] = true
		if err := conn.client.Disconnect(ctx); err != nil {
			r.log.Warn().Err(err).Str("database", name).Msg("disconnect failed")
		}
	}
	r.conns = make(map[string]*Conn)
}
