package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"tush00nka/beseda/internal/model"

	"gorm.io/gorm"
)

// fakeStatusStore records online status writes instead of hitting the database.
type fakeStatusStore struct {
	mu       sync.Mutex
	statuses map[uint]bool
	resets   int
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{statuses: make(map[uint]bool)}
}

func (f *fakeStatusStore) UpdateOnlineStatus(ctx context.Context, userID uint, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[userID] = online
	return nil
}

func (f *fakeStatusStore) SetAllOffline(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	for id := range f.statuses {
		f.statuses[id] = false
	}
	return nil
}

func (f *fakeStatusStore) status(userID uint) (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	online, ok := f.statuses[userID]
	return online, ok
}

// fakeHistory serves a canned message tail.
type fakeHistory struct {
	messages []model.Message
}

func (f *fakeHistory) GetRecentMessages(ctx context.Context, chatID uint) ([]model.Message, error) {
	return f.messages, nil
}

func newTestHub(t *testing.T, history HistorySource) (*Hub, *fakeStatusStore) {
	t.Helper()
	store := newFakeStatusStore()
	hub := NewHub(NewPresenceStore(), store, history)
	t.Cleanup(hub.Shutdown)
	return hub, store
}

func recvEvent(t *testing.T, c *Client) OutEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var ev OutEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	default:
		t.Fatal("no event in send buffer")
	}
	return OutEvent{}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected event in send buffer: %s", data)
	default:
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func TestHandleOnlineBindsPresence(t *testing.T) {
	hub, store := newTestHub(t, nil)
	client := newTestClient()
	hub.Register(client)

	hub.HandleOnline(client, 7)

	got, ok := hub.presence.Lookup(7)
	if !ok || got.ID != client.ID {
		t.Fatalf("presence not bound to connection after online event")
	}

	if online, ok := store.status(7); !ok || !online {
		t.Errorf("persisted status = %v, %v, want true", online, ok)
	}

	ev := recvEvent(t, client)
	if ev.Type != EventTypePresenceChanged {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypePresenceChanged)
	}
	if ev.UserID != 7 {
		t.Errorf("event user_id = %v, want 7", ev.UserID)
	}
	if ev.Message != true {
		t.Errorf("event message = %v, want true", ev.Message)
	}
}

func TestHandleOnlineRequiresUserID(t *testing.T) {
	hub, store := newTestHub(t, nil)
	client := newTestClient()
	hub.Register(client)

	hub.HandleOnline(client, 0)

	ev := recvEvent(t, client)
	if ev.Type != EventTypeError {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypeError)
	}
	if _, ok := store.status(0); ok {
		t.Error("zero user id must not be persisted")
	}
}

func TestHandleOnlineReplacesOldConnection(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	first := newTestClient()
	second := newTestClient()
	hub.Register(first)
	hub.Register(second)

	hub.HandleOnline(first, 7)
	hub.HandleOnline(second, 7)

	got, ok := hub.presence.Lookup(7)
	if !ok || got.ID != second.ID {
		t.Error("presence must point at the newer connection")
	}
	// the orphaned connection is not force-closed
	if first.IsClosed() {
		t.Error("old connection must not be closed on replacement")
	}
}

func TestHandleOffline(t *testing.T) {
	hub, store := newTestHub(t, nil)
	client := newTestClient()
	hub.Register(client)
	hub.HandleOnline(client, 7)
	drain(client)

	hub.HandleOffline(7)

	if _, ok := hub.presence.Lookup(7); ok {
		t.Error("presence entry survived offline event")
	}
	if online, _ := store.status(7); online {
		t.Error("persisted status = true, want false")
	}

	ev := recvEvent(t, client)
	if ev.Type != EventTypePresenceChanged || ev.Message != false {
		t.Errorf("event = %v %v, want presenceChanged false", ev.Type, ev.Message)
	}
}

func TestJoinRoomIdempotent(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	client := newTestClient()
	hub.Register(client)

	hub.JoinRoom(client, 1)
	hub.JoinRoom(client, 1)

	if got := hub.RoomSize(1); got != 1 {
		t.Errorf("RoomSize(1) = %v, want 1", got)
	}
}

func TestJoinRoomSendsHistory(t *testing.T) {
	history := &fakeHistory{messages: []model.Message{
		{Model: gorm.Model{ID: 1}, ChatID: 1, SenderID: 2, Content: "hi"},
		{Model: gorm.Model{ID: 2}, ChatID: 1, SenderID: 3, Content: "hey"},
	}}
	hub, _ := newTestHub(t, history)
	client := newTestClient()
	hub.Register(client)

	hub.JoinRoom(client, 1)

	ev := recvEvent(t, client)
	if ev.Type != EventTypeHistory {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypeHistory)
	}
	if ev.ChatID != 1 {
		t.Errorf("event chat_id = %v, want 1", ev.ChatID)
	}
	if msgs, ok := ev.Messages.([]any); !ok || len(msgs) != 2 {
		t.Errorf("event messages = %v, want 2 entries", ev.Messages)
	}
}

func TestRoomMessageExcludesSender(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	sender := newTestClient()
	other := newTestClient()
	hub.Register(sender)
	hub.Register(other)
	hub.JoinRoom(sender, 1)
	hub.JoinRoom(other, 1)

	hub.RoomMessage(sender, 1, json.RawMessage(`{"content":"hello"}`))

	ev := recvEvent(t, other)
	if ev.Type != EventTypeReceiveMessage {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypeReceiveMessage)
	}
	if ev.ChatID != 1 {
		t.Errorf("event chat_id = %v, want 1", ev.ChatID)
	}

	// the sender gets the persisted copy via newMessage, not the room echo
	assertNoEvent(t, sender)
}

func TestTypingBroadcast(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	sender := newTestClient()
	other := newTestClient()
	hub.Register(sender)
	hub.Register(other)
	hub.JoinRoom(sender, 1)
	hub.JoinRoom(other, 1)

	hub.Typing(sender, 1, 7, true)

	ev := recvEvent(t, other)
	if ev.Type != EventTypeTypingChanged {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypeTypingChanged)
	}
	if ev.UserID != 7 || ev.Message != true {
		t.Errorf("event = user %v message %v, want user 7 message true", ev.UserID, ev.Message)
	}
	assertNoEvent(t, sender)

	hub.Typing(sender, 1, 7, false)
	if ev := recvEvent(t, other); ev.Message != false {
		t.Errorf("stopTyping message = %v, want false", ev.Message)
	}
}

func TestUnregisterClearsPresenceAndRooms(t *testing.T) {
	hub, store := newTestHub(t, nil)
	leaving := newTestClient()
	staying := newTestClient()
	hub.Register(leaving)
	hub.Register(staying)
	hub.JoinRoom(leaving, 1)
	hub.JoinRoom(staying, 1)
	hub.HandleOnline(leaving, 7)
	drain(leaving)
	drain(staying)

	hub.Unregister(leaving)

	if _, ok := hub.presence.Lookup(7); ok {
		t.Error("presence entry survived disconnect")
	}
	if online, _ := store.status(7); online {
		t.Error("persisted status = true, want false after disconnect")
	}
	if got := hub.RoomSize(1); got != 1 {
		t.Errorf("RoomSize(1) = %v, want 1", got)
	}

	ev := recvEvent(t, staying)
	if ev.Type != EventTypePresenceChanged || ev.UserID != 7 || ev.Message != false {
		t.Errorf("event = %v user %v message %v, want presenceChanged 7 false", ev.Type, ev.UserID, ev.Message)
	}
}

func TestUnregisterAnonymousConnection(t *testing.T) {
	hub, store := newTestHub(t, nil)
	client := newTestClient()
	other := newTestClient()
	hub.Register(client)
	hub.Register(other)

	// never bound to a user, so no presence events should fire
	hub.Unregister(client)

	assertNoEvent(t, other)
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.statuses) != 0 {
		t.Errorf("statuses = %v, want empty", store.statuses)
	}
}

func TestNewMessageOnlyToOnlineParticipants(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	online := newTestClient()
	hub.Register(online)
	hub.presence.SetOnline(1, online)

	participants := []model.User{
		{Model: gorm.Model{ID: 1}},
		{Model: gorm.Model{ID: 2}}, // offline
	}
	msg := &model.Message{Model: gorm.Model{ID: 10}, ChatID: 3, SenderID: 1, Content: "hello"}

	hub.NewMessage(3, msg, participants)

	ev := recvEvent(t, online)
	if ev.Type != EventTypeNewMessage {
		t.Errorf("event type = %v, want %v", ev.Type, EventTypeNewMessage)
	}
	if ev.ChatID != 3 {
		t.Errorf("event chat_id = %v, want 3", ev.ChatID)
	}
}

func TestNewChatCreatedExcludesCreator(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	creator := newTestClient()
	other := newTestClient()
	hub.Register(creator)
	hub.Register(other)
	hub.presence.SetOnline(1, creator)
	hub.presence.SetOnline(2, other)

	chat := &model.Chat{
		Model: gorm.Model{ID: 5},
		Participants: []model.User{
			{Model: gorm.Model{ID: 1}},
			{Model: gorm.Model{ID: 2}},
		},
	}

	hub.NewChatCreated(chat, 1)

	ev := recvEvent(t, other)
	if ev.Type != EventTypeNewChatCreated || ev.ChatID != 5 {
		t.Errorf("event = %v chat %v, want newChatCreated 5", ev.Type, ev.ChatID)
	}
	assertNoEvent(t, creator)
}

func TestResetPresence(t *testing.T) {
	hub, store := newTestHub(t, nil)
	hub.presence.SetOnline(1, newTestClient())

	hub.ResetPresence(context.Background())

	if hub.presence.Count() != 0 {
		t.Errorf("presence count = %v, want 0", hub.presence.Count())
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.resets != 1 {
		t.Errorf("SetAllOffline calls = %v, want 1", store.resets)
	}
}

func TestGetStats(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	client := newTestClient()
	hub.Register(client)
	hub.JoinRoom(client, 1)
	hub.presence.SetOnline(7, client)

	stats := hub.GetStats()
	if stats.Connections != 1 || stats.Rooms != 1 || stats.OnlineUsers != 1 {
		t.Errorf("GetStats() = %+v, want 1/1/1", stats)
	}
}
