package service

import (
	"context"

	"tush00nka/beseda/internal/model"
	"tush00nka/beseda/internal/repository"
)

// ChatCacheService — тонкая обёртка над redis-кешем последних сообщений.
// Все ошибки кеша не фатальны: база остаётся источником правды.
type ChatCacheService struct {
	cacheRepo repository.ChatCacheRepository
}

func NewChatCacheService(cacheRepo repository.ChatCacheRepository) *ChatCacheService {
	return &ChatCacheService{cacheRepo: cacheRepo}
}

func (s *ChatCacheService) SaveMessage(ctx context.Context, chatID uint, msg model.Message) error {
	if chatID == 0 {
		return nil
	}
	return s.cacheRepo.SaveMessage(ctx, chatID, msg)
}

// GetRecentMessages отдаёт закешированный хвост переписки чата.
// Пустой кеш — не ошибка, клиент дочитает историю через обычный REST.
func (s *ChatCacheService) GetRecentMessages(ctx context.Context, chatID uint) ([]model.Message, error) {
	if chatID == 0 {
		return nil, nil
	}
	return s.cacheRepo.GetRecent(ctx, chatID)
}

func (s *ChatCacheService) ClearChat(ctx context.Context, chatID uint) error {
	if chatID == 0 {
		return nil
	}
	return s.cacheRepo.Clear(ctx, chatID)
}
