// Package lock provides single-flight guards for the settlement cycle.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrHeld is returned when another holder owns the requested lock.
var ErrHeld = errors.New("lock: already held")

// Locker acquires a named lock for at most ttl. On success it returns a
// release function that is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Local is an in-process Locker used when no Redis address is configured.
// It only guards against overlapping cycles within a single instance.
type Local struct {
	mu    sync.Mutex
	held  map[string]localGrant
	clock func() time.Time
}

type localGrant struct {
	token     string
	expiresAt time.Time
}

func NewLocal() *Local {
	return &Local{held: map[string]localGrant{}, clock: time.Now}
}

func (l *Local) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if grant, ok := l.held[key]; ok && l.clock().Before(grant.expiresAt) {
		return nil, ErrHeld
	}
	token := uuid.NewString()
	l.held[key] = localGrant{token: token, expiresAt: l.clock().Add(ttl)}

	// Token-guarded like the redis Lua unlock: a holder whose TTL lapsed
	// must not release the lock out from under the next holder.
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if grant, ok := l.held[key]; ok && grant.token == token {
			delete(l.held, key)
		}
	}
	return release, nil
}
