package model

import "gorm.io/gorm"

// Message неизменяемо после создания: ни редактирования, ни удаления.
type Message struct {
	gorm.Model
	ChatID   uint   `gorm:"index" json:"chat_id"`
	SenderID uint   `json:"sender_id"`
	Sender   *User  `json:"sender,omitempty"`
	Content  string `json:"content"`
}
