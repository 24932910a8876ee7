package model

import (
	"fmt"

	"gorm.io/gorm"
)

type Chat struct {
	gorm.Model
	IsGroup bool   `gorm:"default:false" json:"is_group"`
	Name    string `json:"name,omitempty"`

	// DirectKey — канонический ключ пары участников личного чата ("minID:maxID").
	// Уникальный индекс на уровне базы закрывает гонку двух одновременных
	// созданий чата для одной и той же пары.
	DirectKey *string `gorm:"uniqueIndex" json:"-"`

	Participants []User    `gorm:"many2many:chat_participants;" json:"participants"`
	Messages     []Message `json:"messages,omitempty"`

	// LastMessage не хранится в базе, заполняется сервисом для списка чатов.
	LastMessage *Message `gorm:"-" json:"last_message,omitempty"`
}

// DirectChatKey возвращает канонический ключ личного чата для пары пользователей.
// Порядок аргументов не важен.
func DirectChatKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func (c *Chat) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
