package service

import "errors"

// Типизированные ошибки ядра. Хендлеры переводят их в HTTP-статусы,
// шлюз — в error-события. Наружу они отдаются как есть, без
// молчаливых подмен на дефолты.
var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrChatNotFound         = errors.New("chat not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotAParticipant      = errors.New("user is not a participant in this chat")
	ErrParticipantsNotFound = errors.New("some participants not found")
	ErrGroupNameRequired    = errors.New("group chat name cannot be empty")
	ErrParticipantsRequired = errors.New("at least one participant besides the creator is required")
	ErrEmptyMessage         = errors.New("message content cannot be empty")
)
