package cache

import (
	"fmt"
	"time"
)

// PresenceTTL matches the pong timeout on the socket side: a session that
// stops answering pings falls out of the presence set on its own.
const PresenceTTL = 90 * time.Second

// PresenceCache tracks which users currently hold a live session. All
// methods are nil-safe so callers can run without Redis configured.
type PresenceCache struct {
	redis *RedisCache
}

func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func presenceKey(userID string) string {
	return fmt.Sprintf("presence:%s", userID)
}

// Online adds the user to the presence set and arms the per-user TTL key.
func (pc *PresenceCache) Online(userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd("presence:online", userID); err != nil {
		return err
	}
	return pc.redis.Set(presenceKey(userID), []byte("1"), PresenceTTL)
}

func (pc *PresenceCache) Offline(userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove("presence:online", userID); err != nil {
		return err
	}
	return pc.redis.Delete(presenceKey(userID))
}

func (pc *PresenceCache) IsOnline(userID string) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	return pc.redis.Exists(presenceKey(userID))
}

func (pc *PresenceCache) OnlineUsers() ([]string, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	return pc.redis.SetMembers("presence:online")
}

func (pc *PresenceCache) OnlineCount() (int64, error) {
	if pc == nil || pc.redis == nil {
		return 0, nil
	}
	return pc.redis.SetCard("presence:online")
}

// Refresh re-arms the TTL for a user that just answered a ping.
func (pc *PresenceCache) Refresh(userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.Set(presenceKey(userID), []byte("1"), PresenceTTL)
}
