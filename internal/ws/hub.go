package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"tush00nka/beseda/internal/model"

	"go.uber.org/atomic"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	statusWriteTimeout     = 5 * time.Second
)

// UserStatusStore — то немногое, что шлюзу нужно от хранилища пользователей:
// флаг is_online на connect/disconnect и массовый сброс на старте.
type UserStatusStore interface {
	UpdateOnlineStatus(ctx context.Context, userID uint, online bool) error
	SetAllOffline(ctx context.Context) error
}

// HistorySource отдаёт закешированный хвост переписки для отправки
// клиенту при входе в комнату.
type HistorySource interface {
	GetRecentMessages(ctx context.Context, chatID uint) ([]model.Message, error)
}

// Metrics метрики шлюза
type Metrics struct {
	EventsReceived atomic.Int64
	EventsSent     atomic.Int64
	Connections    atomic.Int64
	Errors         atomic.Int64
}

// HubStats снимок состояния шлюза
type HubStats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	OnlineUsers int `json:"online_users"`
}

// Hub управляет всеми соединениями, комнатами и присутствием.
// Комната — множество соединений, подписанных на один chatID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client          // connID -> client
	rooms   map[uint]map[string]*Client // chatID -> connID -> client

	presence *PresenceStore
	users    UserStatusStore
	history  HistorySource

	metrics    *Metrics
	lastActive atomic.Time
	shutdown   chan struct{}
}

// NewHub создает новый хаб. history может быть nil — тогда при входе
// в комнату история не отправляется.
func NewHub(presence *PresenceStore, users UserStatusStore, history HistorySource) *Hub {
	hub := &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[uint]map[string]*Client),
		presence: presence,
		users:    users,
		history:  history,
		metrics:  &Metrics{},
		shutdown: make(chan struct{}),
	}

	hub.lastActive.Store(time.Now())

	go hub.cleanupLoop()

	return hub
}

// ResetPresence выполняет стартовый контракт шлюза: после рестарта процесса
// ни одна запись присутствия и ни один is_online в базе не должны пережить
// старую инкарнацию.
func (h *Hub) ResetPresence(ctx context.Context) {
	h.presence.Clear()
	if err := h.users.SetAllOffline(ctx); err != nil {
		log.Printf("hub: failed to set users offline on startup: %v", err)
		return
	}
	log.Println("hub: all users set to offline status")
}

// Register добавляет новое соединение.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	h.metrics.Connections.Inc()
	h.lastActive.Store(time.Now())
	log.Printf("hub: client connected: %s", client.ID)
}

// Unregister убирает соединение из всех комнат и, если на него была
// завязана запись присутствия, снимает её и оповещает остальных.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client.ID)
	for chatID, room := range h.rooms {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
	h.mu.Unlock()

	h.metrics.Connections.Dec()
	log.Printf("hub: client disconnected: %s", client.ID)

	// Скан присутствия: первое совпадение по соединению и выигрывает.
	userID, ok := h.presence.FindByConn(client.ID)
	if !ok {
		return
	}

	h.presence.SetOffline(userID)
	h.persistOnlineStatus(userID, false)
	h.broadcastPresence(userID, false)
}

// HandleOnline привязывает пользователя к соединению по его online-сигналу.
// Привязка доверяет user_id из payload — известная брешь этой схемы:
// строже было бы проверять токен ещё на рукопожатии.
func (h *Hub) HandleOnline(client *Client, userID uint) {
	if userID == 0 {
		client.SendJSON(OutEvent{Type: EventTypeError, Message: "user_id is required", Timestamp: time.Now()})
		h.metrics.Errors.Inc()
		return
	}

	if old, ok := h.presence.Lookup(userID); ok && old.ID != client.ID {
		// Старое соединение не закрываем, оно отвалится само
		log.Printf("hub: user %d already online on %s, replacing with %s", userID, old.ID, client.ID)
	}

	h.presence.SetOnline(userID, client)
	h.persistOnlineStatus(userID, true)
	h.broadcastPresence(userID, true)
}

// HandleOffline снимает присутствие по явному offline-сигналу.
func (h *Hub) HandleOffline(userID uint) {
	if userID == 0 {
		return
	}

	h.presence.SetOffline(userID)
	h.persistOnlineStatus(userID, false)
	h.broadcastPresence(userID, false)
}

// JoinRoom подписывает соединение на комнату чата. Повторный вход — no-op.
func (h *Hub) JoinRoom(client *Client, chatID uint) {
	if chatID == 0 {
		return
	}

	h.mu.Lock()
	room, exists := h.rooms[chatID]
	if !exists {
		room = make(map[string]*Client)
		h.rooms[chatID] = room
	}
	room[client.ID] = client
	h.mu.Unlock()

	h.lastActive.Store(time.Now())
	h.sendHistory(client, chatID)
}

// sendHistory шлёт вошедшему клиенту закешированный хвост переписки.
// Best effort: нет кеша — нет истории.
func (h *Hub) sendHistory(client *Client, chatID uint) {
	if h.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	messages, err := h.history.GetRecentMessages(ctx, chatID)
	if err != nil {
		log.Printf("hub: failed to load history for chat %d: %v", chatID, err)
		return
	}
	if len(messages) == 0 {
		return
	}

	client.SendJSON(OutEvent{
		Type:      EventTypeHistory,
		ChatID:    chatID,
		Messages:  messages,
		Timestamp: time.Now(),
	})
}

// RoomMessage — низколатентная рассылка сообщения по комнате, без
// персистентности. Отправителю не шлём: сохранённый вариант придёт
// ему отдельным push через Chat Directory.
func (h *Hub) RoomMessage(sender *Client, chatID uint, payload json.RawMessage) {
	ev := OutEvent{
		Type:      EventTypeReceiveMessage,
		ChatID:    chatID,
		Message:   payload,
		Timestamp: time.Now(),
	}

	h.broadcastToRoom(chatID, ev, sender.ID)
}

// Typing транслирует индикатор набора текста остальным в комнате.
// Шлюз не следит за чередованием start/stop, он только передаёт.
func (h *Hub) Typing(sender *Client, chatID, userID uint, isTyping bool) {
	ev := OutEvent{
		Type:      EventTypeTypingChanged,
		ChatID:    chatID,
		UserID:    userID,
		Message:   isTyping,
		Timestamp: time.Now(),
	}

	h.broadcastToRoom(chatID, ev, sender.ID)
}

// NewChatCreated — push участникам нового чата (реализация service.ChatEventSink).
// Оффлайн-участник увидит чат при следующем запросе списка, это не ошибка.
func (h *Hub) NewChatCreated(chat *model.Chat, excludeUserID uint) {
	ev := OutEvent{
		Type:      EventTypeNewChatCreated,
		ChatID:    chat.ID,
		Chat:      chat,
		Timestamp: time.Now(),
	}

	for _, participant := range chat.Participants {
		if excludeUserID != 0 && participant.ID == excludeUserID {
			continue
		}

		client, ok := h.presence.Lookup(participant.ID)
		if !ok {
			continue
		}
		if client.SendJSON(ev) {
			h.metrics.EventsSent.Inc()
		}
	}
}

// NewMessage — push сохранённого сообщения всем онлайн-участникам чата,
// включая отправителя (реализация service.ChatEventSink).
func (h *Hub) NewMessage(chatID uint, msg *model.Message, participants []model.User) {
	ev := OutEvent{
		Type:      EventTypeNewMessage,
		ChatID:    chatID,
		Message:   msg,
		Timestamp: time.Now(),
	}

	for _, participant := range participants {
		client, ok := h.presence.Lookup(participant.ID)
		if !ok {
			continue
		}
		if client.SendJSON(ev) {
			h.metrics.EventsSent.Inc()
		}
	}
}

// broadcastPresence оповещает все активные соединения о смене статуса.
func (h *Hub) broadcastPresence(userID uint, isOnline bool) {
	ev := OutEvent{
		Type:      EventTypePresenceChanged,
		UserID:    userID,
		Message:   isOnline,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("hub: failed to marshal presence event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.SendRaw(data) {
			h.metrics.EventsSent.Inc()
		}
	}
}

// broadcastToRoom шлёт событие всем в комнате, кроме excludeConnID.
func (h *Hub) broadcastToRoom(chatID uint, ev OutEvent, excludeConnID string) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("hub: failed to marshal room event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[chatID]
	if !exists {
		return
	}

	for connID, client := range room {
		if connID == excludeConnID {
			continue
		}
		if client.SendRaw(data) {
			h.metrics.EventsSent.Inc()
		}
	}

	h.lastActive.Store(time.Now())
}

// persistOnlineStatus пишет флаг is_online в базу. Ошибка логируется и
// глотается: присутствие не должно ронять основной поток событий.
func (h *Hub) persistOnlineStatus(userID uint, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	if err := h.users.UpdateOnlineStatus(ctx, userID, online); err != nil {
		log.Printf("hub: failed to persist online status for user %d: %v", userID, err)
		h.metrics.Errors.Inc()
	}
}

// RoomSize возвращает число подписчиков комнаты.
func (h *Hub) RoomSize(chatID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[chatID])
}

// GetStats возвращает снимок состояния шлюза.
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return HubStats{
		Connections: len(h.clients),
		Rooms:       len(h.rooms),
		OnlineUsers: h.presence.Count(),
	}
}

// Shutdown останавливает хаб и закрывает все соединения.
func (h *Hub) Shutdown() {
	close(h.shutdown)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.Close()
	}

	h.clients = make(map[string]*Client)
	h.rooms = make(map[uint]map[string]*Client)
}

// cleanupLoop периодически выметает комнаты, оставшиеся без живых клиентов.
func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.shutdown:
			return
		case <-ticker.C:
			h.cleanupRooms()
		}
	}
}

func (h *Hub) cleanupRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID, room := range h.rooms {
		for connID, client := range room {
			if client.IsClosed() {
				delete(room, connID)
			}
		}
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}
