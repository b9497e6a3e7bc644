package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/warp/lodging-engine/booking"
)

// CalendarCache stores rendered calendars as JSON.
type CalendarCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewCalendarCache(rdb redis.UniversalClient, ttl time.Duration) *CalendarCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CalendarCache{rdb: rdb, ttl: ttl}
}

func versionKey(id booking.RoomTypeID) string {
	return keyPrefix + "cal:ver:" + string(id)
}

func entryKey(id booking.RoomTypeID, version int64, view string, start booking.Date) string {
	return fmt.Sprintf("%scal:%s:%d:%s:%s", keyPrefix, id, version, view, start)
}

// version is the current generation of a room type's entries; 0 until the
// first Invalidate.
func (c *CalendarCache) version(ctx context.Context, id booking.RoomTypeID) (int64, error) {
	ver, err := c.rdb.Get(ctx, versionKey(id)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return ver, nil
}

// Get decodes a cached calendar into dst. A miss returns false and no error.
func (c *CalendarCache) Get(ctx context.Context, id booking.RoomTypeID, view string, start booking.Date, dst any) (int64, bool, error) {
	ver, err := c.version(ctx, id)
	if err != nil {
		return 0, false, err
	}
	key := entryKey(id, ver, view, start)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ver, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return 0, false, fmt.Errorf("decode cached calendar %s: %w", key, err)
	}
	return ver, true, nil
}

// Put stores v under the version returned by the Get that missed.
func (c *CalendarCache) Put(ctx context.Context, id booking.RoomTypeID, view string, start booking.Date, version int64, v any) error {
	key := entryKey(id, version, view, start)
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate makes every cached view of the room type unreachable.
func (c *CalendarCache) Invalidate(ctx context.Context, id booking.RoomTypeID) error {
	return c.rdb.Incr(ctx, versionKey(id)).Err()
}
