package ws

import "sync"

// PresenceStore — процессная карта "пользователь -> активное соединение",
// источник правды о том, кто подключён прямо сейчас. Новое соединение того
// же пользователя молча затирает старую запись (last-write-wins); осиротевшее
// соединение никто принудительно не закрывает, оно отвалится само.
type PresenceStore struct {
	mu       sync.RWMutex
	sessions map[uint]*Client
}

func NewPresenceStore() *PresenceStore {
	return &PresenceStore{
		sessions: make(map[uint]*Client),
	}
}

// SetOnline вставляет или перезаписывает соединение пользователя.
func (p *PresenceStore) SetOnline(userID uint, client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sessions[userID] = client
}

// SetOffline убирает запись пользователя. Отсутствующая запись — no-op.
func (p *PresenceStore) SetOffline(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.sessions, userID)
}

// Lookup возвращает активное соединение пользователя, если оно есть.
func (p *PresenceStore) Lookup(userID uint) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	client, ok := p.sessions[userID]
	return client, ok
}

// AllHandles возвращает срез всех активных соединений.
func (p *PresenceStore) AllHandles() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	handles := make([]*Client, 0, len(p.sessions))
	for _, client := range p.sessions {
		handles = append(handles, client)
	}
	return handles
}

// FindByConn ищет пользователя по ID соединения. Используется при
// разрыве: сработает первое совпадение — если из-за last-write-wins
// на одно соединение указывают две записи, снимется только одна.
func (p *PresenceStore) FindByConn(connID string) (uint, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for userID, client := range p.sessions {
		if client.ID == connID {
			return userID, true
		}
	}
	return 0, false
}

// Clear сбрасывает все записи. Вызывается один раз на старте процесса,
// чтобы после рестарта не оставалось фантомного присутствия.
func (p *PresenceStore) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sessions = make(map[uint]*Client)
}

// Count возвращает число активных сессий.
func (p *PresenceStore) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.sessions)
}
