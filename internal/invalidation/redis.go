package invalidation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	viewKeyPrefix = "view:"
	channel       = "cache.invalidate"
)

// The delete and the notification go out in one round trip so a subscriber
// can never observe the publish while a stale key still exists.
var invalidateScript = redis.NewScript(`
for i, key in ipairs(KEYS) do
  redis.call('DEL', key)
end
redis.call('PUBLISH', ARGV[1], ARGV[2])
return 1
`)

// RedisInvalidator drops cached view keys and notifies subscribed clients
// which views went stale.
type RedisInvalidator struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisInvalidator(rdb *redis.Client, log *slog.Logger) *RedisInvalidator {
	return &RedisInvalidator{rdb: rdb, log: log}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, kind string) {
	kinds := StaleKinds(kind)
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = viewKeyPrefix + k
	}

	err := invalidateScript.Run(ctx, r.rdb, keys, channel, strings.Join(kinds, ",")).Err()
	if err != nil {
		// Best-effort: the mutation already committed and client caches
		// expire on their own TTLs.
		r.log.Error("cache invalidation failed", "kind", kind, "err", err)
	}
}
