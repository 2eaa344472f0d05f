// Package redislock serializes work per key across service instances with
// Redis SET NX locks.
package redislock

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock could not be taken before the
// context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type Locker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	log    *slog.Logger
}

// New returns a Locker whose locks expire after ttl if never released.
func New(client *redis.Client, prefix string, ttl time.Duration, log *slog.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Locker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		log:    log,
	}
}

func (l *Locker) key(id int) string {
	return l.prefix + ":" + strconv.Itoa(id)
}

// Lock retries SET NX until it succeeds or ctx is done.
func (l *Locker) Lock(ctx context.Context, id int) (func(), error) {
	key := l.key(id)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrapf(ErrNotAcquired, "%s: %v", key, ctx.Err())
			}
			return nil, errors.Wrapf(err, "acquiring %s", key)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Wrapf(ErrNotAcquired, "%s: %v", key, ctx.Err())
		case <-timer.C:
		}
	}

	return func() {
		// Release even when the request context is already cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("releasing lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}, nil
}
