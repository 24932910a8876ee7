package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// waitRateLimit outlives the per-connection limiter window so that
// consecutive events in one test are not dropped.
func waitRateLimit() {
	time.Sleep(110 * time.Millisecond)
}

func TestHandleEventDispatch(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	h := NewHandler(hub)

	sender := newTestClient()
	other := newTestClient()
	hub.Register(sender)
	hub.Register(other)

	h.handleEvent(sender, InEvent{Type: EventTypeOnline, UserID: 7})
	if _, ok := hub.presence.Lookup(7); !ok {
		t.Fatal("online event must bind presence")
	}
	drain(sender)
	drain(other)

	waitRateLimit()
	h.handleEvent(sender, InEvent{Type: EventTypeJoinRoom, ChatID: 1})
	h.handleEvent(other, InEvent{Type: EventTypeJoinRoom, ChatID: 1})
	if got := hub.RoomSize(1); got != 2 {
		t.Fatalf("RoomSize(1) = %v, want 2", got)
	}

	waitRateLimit()
	h.handleEvent(sender, InEvent{
		Type:    EventTypeSendMessage,
		ChatID:  1,
		Message: json.RawMessage(`{"content":"hi"}`),
	})

	ev := recvEvent(t, other)
	if ev.Type != EventTypeReceiveMessage {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypeReceiveMessage)
	}
}

func TestHandleEventUnknownType(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	h := NewHandler(hub)

	client := newTestClient()
	hub.Register(client)

	h.handleEvent(client, InEvent{Type: "bogus"})

	ev := recvEvent(t, client)
	if ev.Type != EventTypeError {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypeError)
	}
}

func TestHandleEventRateLimit(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	h := NewHandler(hub)

	client := newTestClient()
	hub.Register(client)

	// the limiter allows roughly ten events per second, a burst must trip it
	h.handleEvent(client, InEvent{Type: EventTypeJoinRoom, ChatID: 1})
	h.handleEvent(client, InEvent{Type: EventTypeJoinRoom, ChatID: 2})

	ev := recvEvent(t, client)
	if ev.Type != EventTypeError {
		t.Errorf("event type = %v, want %v after burst", ev.Type, EventTypeError)
	}
	if got := hub.RoomSize(2); got != 0 {
		t.Errorf("RoomSize(2) = %v, want 0: rate limited join must not apply", got)
	}
}
