package ws

import (
	"encoding/json"
	"time"
)

// Типы входящих событий
const (
	EventTypeOnline      = "online"
	EventTypeOffline     = "offline"
	EventTypeJoinRoom    = "joinRoom"
	EventTypeSendMessage = "sendMessage"
	EventTypeStartTyping = "startTyping"
	EventTypeStopTyping  = "stopTyping"
)

// Типы исходящих событий
const (
	EventTypePresenceChanged = "presenceChanged"
	EventTypeReceiveMessage  = "receiveMessage"
	EventTypeTypingChanged   = "typingChanged"
	EventTypeNewChatCreated  = "newChatCreated"
	EventTypeNewMessage      = "newMessage"
	EventTypeHistory         = "history"
	EventTypeError           = "error"
)

// InEvent входящее событие. UserID берётся из payload клиента как есть —
// после рукопожатия соединение повторно не аутентифицируется.
type InEvent struct {
	Type    string          `json:"type"`
	UserID  uint            `json:"user_id,omitempty"`
	ChatID  uint            `json:"chat_id,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

// OutEvent исходящее событие. Для presenceChanged и typingChanged
// булево значение едет в поле Message.
type OutEvent struct {
	Type      string    `json:"type"`
	Message   any       `json:"message,omitempty"`
	Messages  any       `json:"messages,omitempty"`
	UserID    uint      `json:"user_id,omitempty"`
	ChatID    uint      `json:"chat_id,omitempty"`
	Chat      any       `json:"chat,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
