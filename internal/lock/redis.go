package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockLua deletes a lock key only when its value matches the holder's
// token, so a slow holder cannot release a lock re-acquired by someone else.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// Redis implements Locker with SETNX plus a TTL and a conditional unlock.
// It is the guard of choice when several instances share a database.
type Redis struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{
		rdb:      rdb,
		unlockSc: redis.NewScript(unlockLua),
	}
}

func lockKey(key string) string {
	return "lock:" + key
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	lk := lockKey(key)

	ok, err := r.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true

		// The caller's context may already be cancelled when the cycle ends.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = r.unlockSc.Run(unlockCtx, r.rdb, []string{lk}, token).Err()
	}
	return release, nil
}

var _ Locker = (*Redis)(nil)
var _ Locker = (*Local)(nil)
