// Package rdx wraps the redis client used for OTP codes and the
// short-lived availability cache.
package rdx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"trimly/models"
)

const (
	otpTTL          = 5 * time.Minute
	slotSnapshotTTL = 10 * time.Second
	otpKeyPrefix    = "otp:"
	slotsKeyPrefix  = "slots:"
)

type Cache struct {
	conn *redis.Client
}

func New(addr string) *Cache {
	return &Cache{conn: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.conn.Close()
}

// SetOTP stores a one-time code for an email with a fixed TTL.
func (c *Cache) SetOTP(ctx context.Context, email, code string) error {
	return c.conn.Set(ctx, otpKeyPrefix+email, code, otpTTL).Err()
}

// GetOTP retrieves the code for an email; returns empty when absent or
// expired.
func (c *Cache) GetOTP(ctx context.Context, email string) (string, error) {
	v, err := c.conn.Get(ctx, otpKeyPrefix+email).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (c *Cache) DelOTP(ctx context.Context, email string) error {
	return c.conn.Del(ctx, otpKeyPrefix+email).Err()
}

// CacheSlots stores the availability response for a shop briefly, to
// absorb bursts on the public endpoint.
func (c *Cache) CacheSlots(ctx context.Context, tenantID, shopID string, slots []models.Slot) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.conn.Set(ctx, slotsKeyPrefix+tenantID+":"+shopID, data, slotSnapshotTTL).Err()
}

// CachedSlots returns the cached availability, or (nil, false) on miss.
func (c *Cache) CachedSlots(ctx context.Context, tenantID, shopID string) ([]models.Slot, bool) {
	data, err := c.conn.Get(ctx, slotsKeyPrefix+tenantID+":"+shopID).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []models.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// InvalidateSlots drops the cached availability after a mutation.
func (c *Cache) InvalidateSlots(ctx context.Context, tenantID, shopID string) {
	c.conn.Del(ctx, slotsKeyPrefix+tenantID+":"+shopID)
}
