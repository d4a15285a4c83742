package tenants

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/apperrors"
)

// countingDialer opens real (lazy, never-pinged) clients and counts how
// often it runs.
func countingDialer(calls *int32) Dialer {
	return func(ctx context.Context, uri string) (*mongo.Client, error) {
		atomic.AddInt32(calls, 1)
		return mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:27017"))
	}
}

func newTestRouter(d Dialer) *Router {
	return NewRouter("mongodb://localhost:27017", "platform_test", zerolog.Nop()).WithDialer(d)
}

func TestGetCachesConnection(t *testing.T) {
	var calls int32
	r := newTestRouter(countingDialer(&calls))
	defer r.Close(context.Background())

	first, err := r.Get(context.Background(), "tenant_a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := r.Get(context.Background(), "tenant_a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first != second {
		t.Fatal("repeated Get should return the same handle")
	}
	if first.Name() != "tenant_a" {
		t.Fatalf("Name = %q", first.Name())
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("dialer ran %d times, want 1", n)
	}
}

func TestGetSeparatesDatabases(t *testing.T) {
	var calls int32
	r := newTestRouter(countingDialer(&calls))
	defer r.Close(context.Background())

	a, err := r.Get(context.Background(), "tenant_a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := r.Get(context.Background(), "tenant_b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a == b {
		t.Fatal("different databases must get different handles")
	}
	if a.Collection("slots").Database().Name() == b.Collection("slots").Database().Name() {
		t.Fatal("handles must be bound to their own database")
	}
}

func TestGetCollapsesConcurrentOpens(t *testing.T) {
	var calls int32
	r := newTestRouter(countingDialer(&calls))
	defer r.Close(context.Background())

	const n = 32
	conns := make([]*Conn, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			conn, err := r.Get(context.Background(), "tenant_a")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			conns[i] = conn
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("dialer ran %d times for one database, want 1", got)
	}
	for i := 1; i < n; i++ {
		if conns[i] != conns[0] {
			t.Fatal("all callers must share one handle")
		}
	}
}

func TestGetDialFailure(t *testing.T) {
	dialErr := errors.New("dial refused")
	var calls int32
	r := newTestRouter(func(ctx context.Context, uri string) (*mongo.Client, error) {
		atomic.AddInt32(&calls, 1)
		return nil, dialErr
	})

	_, err := r.Get(context.Background(), "tenant_a")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apperrors.ErrConnection) {
		t.Fatalf("error should map to ErrConnection, got %v", err)
	}
	var connErr *apperrors.ConnectionError
	if !errors.As(err, &connErr) || connErr.Database != "tenant_a" {
		t.Fatalf("error should name the database, got %v", err)
	}

	// A failed open must not be cached; the next call retries.
	_, _ = r.Get(context.Background(), "tenant_a")
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("dialer ran %d times, want 2", got)
	}
}
