package caselock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultTTL bounds how long a crashed adjudication can hold the token.
const defaultTTL = 3 * time.Minute

// Locker hands out per-case adjudication tokens so two sessions cannot
// run verdict generation for the same case at once.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb, ttl: defaultTTL}
}

func adjudicationKey(caseID string) string {
	return fmt.Sprintf("case:%s:adjudication", caseID)
}

// Acquire takes the per-case token. It returns a release func and whether
// the token was obtained. With no Redis configured the guard is a no-op
// and always grants.
func (l *Locker) Acquire(ctx context.Context, caseID string) (func(), bool, error) {
	if l == nil || l.rdb == nil {
		return func() {}, true, nil
	}

	key := adjudicationKey(caseID)
	ok, err := l.rdb.SetNX(ctx, key, time.Now().UnixMilli(), l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire adjudication token: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// Best effort; the TTL reclaims the token if this is lost.
		l.rdb.Del(context.Background(), key)
	}
	return release, true, nil
}
