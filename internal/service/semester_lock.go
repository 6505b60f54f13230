package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const lockRetryInterval = 25 * time.Millisecond

var releaseLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SemesterLocker serialises schedule writers of one semester.
type SemesterLocker interface {
	Lock(ctx context.Context, semesterID uint) (func(), error)
}

type semesterLocker struct {
	mu     sync.Mutex
	local  map[uint]chan struct{}
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSemesterLocker builds a locker holding an in-process slot per semester and, when a Redis
// client is supplied, a lease shared by every replica.
func NewSemesterLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) SemesterLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &semesterLocker{
		local:  make(map[uint]chan struct{}),
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "semester_lock").Logger(),
	}
}

func (l *semesterLocker) Lock(ctx context.Context, semesterID uint) (func(), error) {
	slot := l.slot(semesterID)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	releaseLocal := func() { <-slot }
	if l.redis == nil {
		return releaseLocal, nil
	}

	key := fmt.Sprintf("lock:semester:%d", semesterID)
	token := uuid.NewString()
	if err := l.acquireLease(ctx, key, token); err != nil {
		releaseLocal()
		return nil, err
	}

	return func() {
		if err := releaseLeaseScript.Run(context.Background(), l.redis, []string{key}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Uint("semester_id", semesterID).Msg("failed to release semester lease")
		}
		releaseLocal()
	}, nil
}

func (l *semesterLocker) acquireLease(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire semester lease: %w", err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *semesterLocker) slot(semesterID uint) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.local[semesterID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.local[semesterID] = slot
	}
	return slot
}
