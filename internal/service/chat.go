package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"tush00nka/beseda/internal/model"
	"tush00nka/beseda/internal/repository"
)

const (
	defaultMessagesLimit = 50
	maxMessagesLimit     = 100
)

// chatService реализация ChatService
type chatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	cache    *ChatCacheService
	sink     ChatEventSink
}

// NewChatService создает новый экземпляр ChatService. sink может быть nil —
// тогда сервис работает без realtime-уведомлений (удобно в тестах).
func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	cache *ChatCacheService,
	sink ChatEventSink,
) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		cache:    cache,
		sink:     sink,
	}
}

// FindOrCreateDirectChat возвращает личный чат пары пользователей, создавая
// его при первом обращении. Проверка "нашёлся — вернуть, нет — создать" сама
// по себе гоночная, поэтому создание опирается на уникальный индекс по
// каноническому ключу пары: проигравший дубликат перечитывает победителя.
func (s *chatService) FindOrCreateDirectChat(ctx context.Context, currentUserID, otherUserID uint) (*model.Chat, error) {
	if currentUserID == 0 || otherUserID == 0 || currentUserID == otherUserID {
		return nil, ErrParticipantsNotFound
	}

	key := model.DirectChatKey(currentUserID, otherUserID)

	chat, err := s.chatRepo.FindByDirectKey(ctx, key)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	users, err := s.userRepo.FindByIDs(ctx, []uint{currentUserID, otherUserID})
	if err != nil {
		return nil, err
	}
	if len(users) != 2 {
		return nil, ErrParticipantsNotFound
	}

	created, err := s.chatRepo.CreateDirect(ctx, key, users)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Параллельный запрос успел первым — отдаем его чат.
			return s.chatRepo.FindByDirectKey(ctx, key)
		}
		return nil, err
	}

	if s.sink != nil {
		s.sink.NewChatCreated(created, currentUserID)
	}

	return created, nil
}

// CreateGroupChat создает групповой чат. Создатель всегда попадает в состав
// участников, даже если его нет в переданном списке.
func (s *chatService) CreateGroupChat(ctx context.Context, name string, creatorID uint, participantIDs []uint) (*model.Chat, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrGroupNameRequired
	}

	ids := dedupeIDs(creatorID, participantIDs)
	if len(ids) < 2 {
		return nil, ErrParticipantsRequired
	}

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, ErrParticipantsNotFound
	}

	chat, err := s.chatRepo.CreateGroup(ctx, strings.TrimSpace(name), users)
	if err != nil {
		return nil, err
	}

	if s.sink != nil {
		s.sink.NewChatCreated(chat, creatorID)
	}

	return chat, nil
}

func (s *chatService) GetChatByID(ctx context.Context, chatID uint) (*model.Chat, error) {
	if chatID == 0 {
		return nil, ErrChatNotFound
	}

	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return chat, nil
}

// GetUserChats возвращает чаты пользователя, каждый с последним сообщением.
// Сортировка — по свежести активности, чаты без сообщений в конце.
func (s *chatService) GetUserChats(ctx context.Context, userID uint) ([]model.Chat, error) {
	chats, err := s.chatRepo.GetChatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range chats {
		last, err := s.chatRepo.LastMessage(ctx, chats[i].ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // свежесозданный чат без сообщений
			}
			return nil, err
		}
		chats[i].LastMessage = last
	}

	sort.SliceStable(chats, func(i, j int) bool {
		a, b := chats[i].LastMessage, chats[j].LastMessage
		switch {
		case a == nil && b == nil:
			return chats[i].ID > chats[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	return chats, nil
}

// GetChatMessages возвращает сообщения чата по возрастанию времени создания.
func (s *chatService) GetChatMessages(ctx context.Context, chatID uint, limit, offset int) ([]model.Message, error) {
	if _, err := s.GetChatByID(ctx, chatID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessagesLimit
	}
	if limit > maxMessagesLimit {
		limit = maxMessagesLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.chatRepo.GetMessages(ctx, chatID, limit, offset)
}

// AddParticipant добавляет пользователя в чат. Повторное добавление — no-op.
func (s *chatService) AddParticipant(ctx context.Context, chatID, userID uint) (*model.Chat, error) {
	chat, err := s.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}

	if chat.HasParticipant(userID) {
		return chat, nil
	}

	if err := s.chatRepo.AddParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	return s.GetChatByID(ctx, chatID)
}

// RemoveParticipant убирает пользователя из чата. Отсутствующего — no-op.
func (s *chatService) RemoveParticipant(ctx context.Context, chatID, userID uint) (*model.Chat, error) {
	if _, err := s.GetChatByID(ctx, chatID); err != nil {
		return nil, err
	}

	if err := s.chatRepo.RemoveParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	return s.GetChatByID(ctx, chatID)
}

// SendMessage сохраняет сообщение и толкает его онлайн-участникам.
// Если запись в базу не удалась, никакой рассылки не происходит.
func (s *chatService) SendMessage(ctx context.Context, chatID, senderID uint, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	sender, err := s.getUser(ctx, senderID)
	if err != nil {
		return nil, err
	}

	if !chat.HasParticipant(senderID) {
		return nil, ErrNotAParticipant
	}

	msg := &model.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}

	if err := s.chatRepo.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}
	msg.Sender = sender

	// Кеш и push — best effort, сообщение уже сохранено.
	if s.cache != nil {
		if err := s.cache.SaveMessage(ctx, chatID, *msg); err != nil {
			log.Printf("chat service: failed to cache message %d: %v", msg.ID, err)
		}
	}

	if s.sink != nil {
		s.sink.NewMessage(chatID, msg, chat.Participants)
	}

	return msg, nil
}

func (s *chatService) getUser(ctx context.Context, userID uint) (*model.User, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// dedupeIDs собирает уникальный список участников, всегда начиная с создателя.
func dedupeIDs(creatorID uint, ids []uint) []uint {
	seen := map[uint]bool{creatorID: true}
	result := []uint{creatorID}
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
