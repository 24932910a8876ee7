package service

import (
	"context"

	"tush00nka/beseda/internal/model"
)

// OAuthProfile — профиль, который отдаёт провайдер после обмена кода.
type OAuthProfile struct {
	GoogleID  string
	Email     string
	FirstName string
	LastName  string
	Avatar    string
}

type UserService interface {
	FindOrCreateOAuthUser(ctx context.Context, profile OAuthProfile) (*model.User, error)
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)
	SetOnline(ctx context.Context, userID uint, online bool) error
	StoreRefreshToken(ctx context.Context, userID uint, refreshToken string) error
}

type ChatService interface {
	FindOrCreateDirectChat(ctx context.Context, currentUserID, otherUserID uint) (*model.Chat, error)
	CreateGroupChat(ctx context.Context, name string, creatorID uint, participantIDs []uint) (*model.Chat, error)
	GetChatByID(ctx context.Context, chatID uint) (*model.Chat, error)
	GetUserChats(ctx context.Context, userID uint) ([]model.Chat, error)
	GetChatMessages(ctx context.Context, chatID uint, limit, offset int) ([]model.Message, error)
	AddParticipant(ctx context.Context, chatID, userID uint) (*model.Chat, error)
	RemoveParticipant(ctx context.Context, chatID, userID uint) (*model.Chat, error)
	SendMessage(ctx context.Context, chatID, senderID uint, content string) (*model.Message, error)
}

// ChatEventSink — узкий канал уведомлений в сторону шлюза соединений.
// Сервис чатов держит только его, а не весь шлюз, чтобы не замыкать
// зависимость между ними в кольцо.
type ChatEventSink interface {
	// NewChatCreated уведомляет участников нового чата. excludeUserID
	// позволяет не слать создателю; ноль — слать всем.
	NewChatCreated(chat *model.Chat, excludeUserID uint)
	// NewMessage доставляет сохранённое сообщение всем онлайн-участникам,
	// включая отправителя: его другие устройства тоже должны его увидеть.
	NewMessage(chatID uint, msg *model.Message, participants []model.User)
}
