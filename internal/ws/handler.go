package ws

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Handler поднимает HTTP-запрос до WebSocket и крутит цикл событий соединения.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWS — точка входа /ws.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	// Контекст запроса умирает вместе с хендлером, соединение живёт дольше.
	client := NewClient(context.Background(), conn)

	h.hub.Register(client)

	go func() {
		if err := client.WritePump(); err != nil {
			log.Printf("ws: write pump for %s: %v", client.ID, err)
		}
	}()

	client.ReadPump(h.handleEvent)

	h.hub.Unregister(client)
}

// handleEvent маршрутизирует входящее событие соединения.
func (h *Handler) handleEvent(client *Client, ev InEvent) {
	h.hub.metrics.EventsReceived.Inc()

	if !client.CheckRateLimit() {
		client.SendJSON(OutEvent{
			Type:      EventTypeError,
			Message:   "rate limit exceeded",
			Timestamp: time.Now(),
		})
		return
	}

	switch ev.Type {
	case EventTypeOnline:
		h.hub.HandleOnline(client, ev.UserID)
	case EventTypeOffline:
		h.hub.HandleOffline(ev.UserID)
	case EventTypeJoinRoom:
		h.hub.JoinRoom(client, ev.ChatID)
	case EventTypeSendMessage:
		h.hub.RoomMessage(client, ev.ChatID, ev.Message)
	case EventTypeStartTyping:
		h.hub.Typing(client, ev.ChatID, ev.UserID, true)
	case EventTypeStopTyping:
		h.hub.Typing(client, ev.ChatID, ev.UserID, false)
	default:
		client.SendJSON(OutEvent{
			Type:      EventTypeError,
			Message:   "unknown event type: " + ev.Type,
			Timestamp: time.Now(),
		})
		h.hub.metrics.Errors.Inc()
	}
}
