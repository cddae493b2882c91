package cache

import (
	"fmt"
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const ConversationTTL = 5 * time.Minute

// MessageCache caches recent conversation history keyed by conversation id.
// All methods are nil-safe so callers can run without Redis configured.
type MessageCache struct {
	redis *RedisCache
}

func NewMessageCache(redis *RedisCache) *MessageCache {
	return &MessageCache{redis: redis}
}

func conversationKey(conversationID string) string {
	return fmt.Sprintf("conv:%s", conversationID)
}

// GetConversation retrieves cached messages for a conversation. A decode
// failure is treated as a miss; the entry will be overwritten on the next
// Set.
func (mc *MessageCache) GetConversation(conversationID string) ([]models.Message, bool) {
	if mc == nil || mc.redis == nil {
		return nil, false
	}
	data, err := mc.redis.Get(conversationKey(conversationID))
	if err != nil || data == nil {
		return nil, false
	}

	var messages []models.Message
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

func (mc *MessageCache) SetConversation(conversationID string, messages []models.Message) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		return err
	}
	return mc.redis.Set(conversationKey(conversationID), data, ConversationTTL)
}

// InvalidateConversation drops the cached history after any write to the
// conversation (send, edit, delete, read receipt).
func (mc *MessageCache) InvalidateConversation(conversationID string) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Delete(conversationKey(conversationID))
}
