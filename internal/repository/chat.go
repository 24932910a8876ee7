package repository

import (
	"context"

	"tush00nka/beseda/internal/model"

	"gorm.io/gorm"
)

type ChatRepository interface {
	FindByID(ctx context.Context, chatID uint) (*model.Chat, error)
	FindByDirectKey(ctx context.Context, key string) (*model.Chat, error)
	CreateDirect(ctx context.Context, key string, participants []model.User) (*model.Chat, error)
	CreateGroup(ctx context.Context, name string, participants []model.User) (*model.Chat, error)
	AddParticipant(ctx context.Context, chatID, userID uint) error
	RemoveParticipant(ctx context.Context, chatID, userID uint) error
	SaveMessage(ctx context.Context, msg *model.Message) error
	GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]model.Message, error)
	LastMessage(ctx context.Context, chatID uint) (*model.Message, error)
	GetChatsForUser(ctx context.Context, userID uint) ([]model.Chat, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindByID(ctx context.Context, chatID uint) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&chat, chatID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (r *chatRepository) FindByDirectKey(ctx context.Context, key string) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Messages.Sender").
		Where("direct_key = ?", key).
		First(&chat).Error
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// CreateDirect создаёт личный чат с каноническим ключом пары. Если второй
// запрос успел создать чат для той же пары первым, уникальный индекс по
// direct_key вернёт ErrDuplicateKey — вызывающий перечитывает победителя.
func (r *chatRepository) CreateDirect(ctx context.Context, key string, participants []model.User) (*model.Chat, error) {
	chat := model.Chat{
		IsGroup:      false,
		DirectKey:    &key,
		Participants: participants,
	}

	if err := r.db.WithContext(ctx).Create(&chat).Error; err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (r *chatRepository) CreateGroup(ctx context.Context, name string, participants []model.User) (*model.Chat, error) {
	chat := model.Chat{
		IsGroup:      true,
		Name:         name,
		Participants: participants,
	}

	if err := r.db.WithContext(ctx).Create(&chat).Error; err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (r *chatRepository) AddParticipant(ctx context.Context, chatID, userID uint) error {
	chat := model.Chat{Model: gorm.Model{ID: chatID}}
	user := model.User{Model: gorm.Model{ID: userID}}
	return translate(r.db.WithContext(ctx).Model(&chat).Association("Participants").Append(&user))
}

func (r *chatRepository) RemoveParticipant(ctx context.Context, chatID, userID uint) error {
	chat := model.Chat{Model: gorm.Model{ID: chatID}}
	user := model.User{Model: gorm.Model{ID: userID}}
	return translate(r.db.WithContext(ctx).Model(&chat).Association("Participants").Delete(&user))
}

func (r *chatRepository) SaveMessage(ctx context.Context, msg *model.Message) error {
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

func (r *chatRepository) GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

func (r *chatRepository) LastMessage(ctx context.Context, chatID uint) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *chatRepository) GetChatsForUser(ctx context.Context, userID uint) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_participants cp ON cp.chat_id = chats.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Find(&chats).Error
	if err != nil {
		return nil, translate(err)
	}
	return chats, nil
}
