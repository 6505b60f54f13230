package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/observability"
)

// fillProjectionScript stores a projection only while the semester version still matches the
// one observed before the projection was read.
var fillProjectionScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	current = "0"
end
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// RedisScripts lists the Lua scripts the semester lock and the projection cache evaluate.
func RedisScripts() []*redis.Script {
	return []*redis.Script{releaseLeaseScript, fillProjectionScript}
}

// ScheduleCache stores the base master schedule projection of a semester.
//
// Readers take Version before loading sessions and hand it back to Fill. Invalidate bumps the
// version, and Fill is a no-op once the version has moved.
type ScheduleCache interface {
	Get(ctx context.Context, semesterID uint) (dto.ScheduleResponse, bool)
	Version(ctx context.Context, semesterID uint) (int64, bool)
	Fill(ctx context.Context, semesterID uint, version int64, projection dto.ScheduleResponse) bool
	Invalidate(ctx context.Context, semesterID uint)
}

type scheduleCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewScheduleCache returns a Redis backed projection cache. A nil client disables caching.
func NewScheduleCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ScheduleCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &scheduleCache{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "schedule_cache").Logger(),
	}
}

func scheduleCacheKey(semesterID uint) string {
	return fmt.Sprintf("schedule:semester:%d", semesterID)
}

func scheduleVersionKey(semesterID uint) string {
	return fmt.Sprintf("schedule:semester:%d:v", semesterID)
}

func (c *scheduleCache) Get(ctx context.Context, semesterID uint) (dto.ScheduleResponse, bool) {
	if c.redis == nil {
		return dto.ScheduleResponse{}, false
	}

	cached, err := c.redis.Get(ctx, scheduleCacheKey(semesterID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Uint("semester_id", semesterID).Msg("failed to read schedule cache")
		}
		return dto.ScheduleResponse{}, false
	}

	var projection dto.ScheduleResponse
	if err := json.Unmarshal([]byte(cached), &projection); err != nil {
		c.logger.Warn().Err(err).Uint("semester_id", semesterID).Msg("discarding corrupt schedule cache entry")
		return dto.ScheduleResponse{}, false
	}
	return projection, true
}

// Version reports the semester's mutation counter. The second value is false when the
// counter cannot be read, in which case callers must not fill.
func (c *scheduleCache) Version(ctx context.Context, semesterID uint) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}

	version, err := c.redis.Get(ctx, scheduleVersionKey(semesterID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		c.logger.Warn().Err(err).Uint("semester_id", semesterID).Msg("failed to read schedule cache version")
		return 0, false
	}
	return version, true
}

func (c *scheduleCache) Fill(ctx context.Context, semesterID uint, version int64, projection dto.ScheduleResponse) bool {
	if c.redis == nil {
		return false
	}

	payload, err := json.Marshal(projection)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode schedule projection")
		return false
	}

	keys := []string{scheduleVersionKey(semesterID), scheduleCacheKey(semesterID)}
	stored, err := fillProjectionScript.Run(ctx, c.redis, keys, strconv.FormatInt(version, 10), payload, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn().Err(err).Uint("semester_id", semesterID).Msg("failed to store schedule cache")
		return false
	}
	if stored == 0 {
		observability.ScheduleCacheFills().WithLabelValues("stale").Inc()
		c.logger.Debug().Uint("semester_id", semesterID).Int64("version", version).Msg("skipped stale schedule cache fill")
		return false
	}
	observability.ScheduleCacheFills().WithLabelValues("stored").Inc()
	return true
}

func (c *scheduleCache) Invalidate(ctx context.Context, semesterID uint) {
	if c.redis == nil {
		return
	}

	pipe := c.redis.TxPipeline()
	pipe.Incr(ctx, scheduleVersionKey(semesterID))
	pipe.Del(ctx, scheduleCacheKey(semesterID))
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn().Err(err).Uint("semester_id", semesterID).Msg("failed to invalidate schedule cache")
	}
}
