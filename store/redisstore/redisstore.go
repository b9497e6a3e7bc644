/*
Package redisstore provides the Redis-backed collaborators of the engine.

COMPONENTS:
  Locker:        booking.Locker over SET NX PX with a random token
  CalendarCache: booking.CalendarCache with per-room-type version keys
  Publisher:     booking.Notifier publishing events on a channel

KEYS:
  lodging:lock:<lock key>                 admission lock, value = owner token
  lodging:cal:ver:<room type>             calendar version, INCR on invalidate
  lodging:cal:<room type>:<ver>:<view>:<start>  rendered calendar (JSON, TTL)

  Invalidation bumps the version, so every cached view of the room type
  becomes unreachable at once and expires on its own.
*/
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lodging:"

// Options configures the client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
