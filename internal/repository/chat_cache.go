package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tush00nka/beseda/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	// Держим в кеше только хвост переписки.
	cachedMessagesPerChat = 100
	messageCacheTTL       = 24 * time.Hour
)

// ChatCacheRepository — кеш последних сообщений чата в redis.
// Используется шлюзом для отдачи истории при входе в комнату,
// пишется насквозь при каждой отправке сообщения.
type ChatCacheRepository interface {
	SaveMessage(ctx context.Context, chatID uint, msg model.Message) error
	GetRecent(ctx context.Context, chatID uint) ([]model.Message, error)
	Clear(ctx context.Context, chatID uint) error
}

type chatCacheRepository struct {
	rdb *redis.Client
}

func NewChatCacheRepository(rdb *redis.Client) ChatCacheRepository {
	return &chatCacheRepository{rdb: rdb}
}

func (r *chatCacheRepository) messageKey(chatID uint) string {
	return fmt.Sprintf("chat:%d:messages", chatID)
}

func (r *chatCacheRepository) SaveMessage(ctx context.Context, chatID uint, msg model.Message) error {
	if chatID == 0 {
		return fmt.Errorf("chatID cannot be zero")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.messageKey(chatID)

	if err := r.rdb.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to save message to redis: %w", err)
	}

	if err := r.rdb.LTrim(ctx, key, -cachedMessagesPerChat, -1).Err(); err != nil {
		return fmt.Errorf("failed to trim message list: %w", err)
	}

	if err := r.rdb.Expire(ctx, key, messageCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set TTL: %w", err)
	}

	return nil
}

func (r *chatCacheRepository) GetRecent(ctx context.Context, chatID uint) ([]model.Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chatID cannot be zero")
	}

	values, err := r.rdb.LRange(ctx, r.messageKey(chatID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.Message{}, nil
		}
		return nil, fmt.Errorf("failed to get messages from redis: %w", err)
	}

	messages := make([]model.Message, 0, len(values))
	for _, v := range values {
		var msg model.Message
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			// Битые записи пропускаем
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *chatCacheRepository) Clear(ctx context.Context, chatID uint) error {
	return r.rdb.Del(ctx, r.messageKey(chatID)).Err()
}
