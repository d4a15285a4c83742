// Package registry hands out collection handles bound to a specific
// tenant connection, compiled (indexes ensured) at most once per
// (database, kind) pair. The cache key embeds the connection's database
// name: a repository can never be returned against the wrong tenant.
package registry

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"trimly/tenants"
)

// Kind identifies an entity family.
type Kind string

const (
	Tenants              Kind = "tenants"
	ClientDatabaseMap    Kind = "client_database_map"
	SubscriptionPayments Kind = "subscription_payments"
	Users                Kind = "users"
	Shops                Kind = "shops"
	ShopSettings         Kind = "shop_settings"
	StaffProfiles        Kind = "staff_profiles"
	Services             Kind = "services"
	Slots                Kind = "slots"
	Bookings             Kind = "bookings"
	Invoices             Kind = "invoices"
)

type entry struct {
	once sync.Once
	col  *mongo.Collection
	err  error
}

// Registry caches bound collections per (database, kind).
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Collection returns the collection for an entity kind on the given
// connection. The first call per (database, kind) ensures that kind's
// indexes; subsequent calls are pure cache hits.
func (r *Registry) Collection(ctx context.Context, conn *tenants.Conn, kind Kind) (*mongo.Collection, error) {
	key := conn.Name() + "/" + string(kind)

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		col := conn.Collection(string(kind))
		if err := ensureIndexes(ctx, col, kind); err != nil {
			e.err = err
			return
		}
		e.col = col
	})
	if e.err != nil {
		// Allow a later call to retry after a transient index failure.
		r.mu.Lock()
		if r.entries[key] == e {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		return nil, e.err
	}
	return e.col, nil
}

// CachedKeys returns the cache keys currently held. Used by tests and
// diagnostics.
func (r *Registry) CachedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}
