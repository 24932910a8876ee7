package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Константы
const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 64 * 1024 // 64KB
	maxSendChannelSize = 256
)

// Client представляет одно WebSocket соединение. Пользователь привязывается
// к соединению позже, событием online, — до этого соединение анонимно.
type Client struct {
	ID        string
	ctx       context.Context
	cancel    context.CancelFunc
	conn      *websocket.Conn
	send      chan []byte
	mu        sync.RWMutex
	isClosed  bool
	rateLimit *RateLimiter
}

// RateLimiter ограничитель частоты сообщений
type RateLimiter struct {
	mu       sync.Mutex
	lastSent time.Time
	interval time.Duration
}

// NewRateLimiter создает новый ограничитель
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		lastSent: time.Now().Add(-interval),
	}
}

// Allow проверяет, можно ли обработать событие
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSent) >= rl.interval {
		rl.lastSent = now
		return true
	}

	return false
}

// NewClient создает нового клиента
func NewClient(ctx context.Context, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		ID:        uuid.NewString(),
		ctx:       ctx,
		cancel:    cancel,
		conn:      conn,
		send:      make(chan []byte, maxSendChannelSize),
		rateLimit: NewRateLimiter(100 * time.Millisecond), // 10 событий в секунду
	}
}

// CheckRateLimit проверяет лимит частоты
func (c *Client) CheckRateLimit() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.rateLimit.Allow()
}

// ReadPump читает события от клиента
func (c *Client) ReadPump(handleIncoming func(*Client, InEvent)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev InEvent
			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure) {
					log.Printf("client read error: %v", err)
				}
				return
			}

			handleIncoming(c, ev)
		}
	}
}

// WritePump отправляет события клиенту
func (c *Client) WritePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// Канал закрыт
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return err
			}

			if _, err := w.Write(message); err != nil {
				return err
			}

			// Досылаем накопившееся в одном writer
			n := len(c.send)
			for i := 0; i < n; i++ {
				if _, err := w.Write(<-c.send); err != nil {
					return err
				}
			}

			if err := w.Close(); err != nil {
				return err
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// SendJSON отправляет JSON событие
func (c *Client) SendJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("client marshal error: %v", err)
		return false
	}

	return c.SendRaw(data)
}

// SendRaw отправляет сырые данные
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	if c.isClosed {
		c.mu.RUnlock()
		return false
	}

	select {
	case c.send <- data:
		c.mu.RUnlock()
		return true
	default:
		c.mu.RUnlock()
		// Перегруз - пропускаем событие
		return false
	}
}

// Close закрывает соединение
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}

	c.isClosed = true
	c.cancel()
	close(c.send)
	if c.conn != nil {
		c.conn.Close()
	}
}

// IsClosed проверяет, закрыто ли соединение
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
