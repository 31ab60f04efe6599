package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadKeyTTL = 24 * time.Hour

// decrFloorScript decrements the counter but never lets it go below
// zero. Without the floor a decrement racing a cache expiry could leave
// a negative count.
var decrFloorScript = redis.NewScript(`
local v = redis.call('DECR', KEYS[1])
if v < 0 then
  redis.call('SET', KEYS[1], 0)
  v = 0
end
redis.call('EXPIRE', KEYS[1], ARGV[1])
return v
`)

// UnreadCache caches per-user unread notification counts in Redis.
// The database remains the source of truth; the cache is repopulated
// on miss.
type UnreadCache struct {
	client redis.UniversalClient
}

// NewUnreadCache creates a new unread count cache.
func NewUnreadCache(client redis.UniversalClient) *UnreadCache {
	return &UnreadCache{client: client}
}

func unreadKey(userID int64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// Get returns the cached count. The second return value is false on a
// cache miss.
func (c *UnreadCache) Get(ctx context.Context, userID int64) (int64, bool, error) {
	count, err := c.client.Get(ctx, unreadKey(userID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Set stores the count.
func (c *UnreadCache) Set(ctx context.Context, userID, count int64) error {
	return c.client.Set(ctx, unreadKey(userID), count, unreadKeyTTL).Err()
}

// Incr increments the count by one.
func (c *UnreadCache) Incr(ctx context.Context, userID int64) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, unreadKey(userID))
	pipe.Expire(ctx, unreadKey(userID), unreadKeyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Decr decrements the count by one, floored at zero.
func (c *UnreadCache) Decr(ctx context.Context, userID int64) error {
	return decrFloorScript.Run(ctx, c.client,
		[]string{unreadKey(userID)},
		int(unreadKeyTTL.Seconds()),
	).Err()
}

// Reset sets the count to zero.
func (c *UnreadCache) Reset(ctx context.Context, userID int64) error {
	return c.Set(ctx, userID, 0)
}

// Invalidate drops the cached count so the next read goes to the
// database.
func (c *UnreadCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, unreadKey(userID)).Err()
}
