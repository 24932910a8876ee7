package model

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email     string `gorm:"uniqueIndex" json:"email"`
	GoogleID  string `gorm:"index" json:"google_id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"` // URL картинки профиля от провайдера
	IsOnline  bool   `gorm:"default:false" json:"is_online"`

	// Пользователь может быть залогинен с нескольких устройств,
	// поэтому храним по одному refresh-токену на сессию.
	RefreshTokens []RefreshToken `json:"-"`

	Chats    []Chat    `gorm:"many2many:chat_participants;" json:"-"`
	Messages []Message `gorm:"foreignKey:SenderID" json:"-"`
}

// RefreshToken хранит односторонний хеш refresh-токена для будущей проверки отзыва.
type RefreshToken struct {
	gorm.Model
	UserID uint   `gorm:"index" json:"user_id"`
	Hash   string `json:"-"`
}

func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
