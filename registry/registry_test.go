package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/registry"
	"trimly/tenants"
)

// offlineConn opens a handle against a lazy client that never manages
// to reach a server.
func offlineConn(t *testing.T, dbName string) *tenants.Conn {
	t.Helper()
	router := tenants.NewRouter("mongodb://localhost:1", "platform_test", zerolog.Nop()).
		WithDialer(func(ctx context.Context, uri string) (*mongo.Client, error) {
			return mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:1"))
		})
	t.Cleanup(func() { router.Close(context.Background()) })

	conn, err := router.Get(context.Background(), dbName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return conn
}

func TestCollectionFailureIsNotCached(t *testing.T) {
	reg := registry.New()
	conn := offlineConn(t, "tenant_a")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// Index creation cannot reach a server, so the first call fails.
	if _, err := reg.Collection(ctx, conn, registry.Slots); err == nil {
		t.Fatal("expected error against unreachable server")
	}

	// The failed entry must be evicted so a later call can retry.
	if keys := reg.CachedKeys(); len(keys) != 0 {
		t.Fatalf("failed entry left in cache: %v", keys)
	}
}
