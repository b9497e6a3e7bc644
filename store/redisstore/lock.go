package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/logger"
)

// releaseScript deletes the key only if this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a booking.Locker shared by every process using the same Redis.
type Locker struct {
	rdb   redis.UniversalClient
	log   logger.Logger
	ttl   time.Duration
	retry time.Duration
}

// NewLocker returns a Locker. ttl bounds how long a crashed holder can keep
// a room type locked; it must exceed the store timeout.
func NewLocker(rdb redis.UniversalClient, ttl time.Duration, log logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if log == nil {
		log = logger.Discard{}
	}
	return &Locker{rdb: rdb, log: log, ttl: ttl, retry: 20 * time.Millisecond}
}

func (l *Locker) Lock(ctx context.Context, key string) (booking.Unlock, error) {
	k := keyPrefix + "lock:" + key
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: acquire %s: %v", booking.ErrUnavailable, key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: acquire %s: %v", booking.ErrUnavailable, key, ctx.Err())
		case <-timer.C:
		}
	}

	return func() {
		// the caller's ctx may already be done
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := releaseScript.Run(rctx, l.rdb, []string{k}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.log.Error("release lock %s: %v", key, err)
		}
	}, nil
}
