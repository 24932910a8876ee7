package service

import (
	"context"
	"sync"
	"time"

	"tush00nka/beseda/internal/model"
	"tush00nka/beseda/internal/repository"

	"gorm.io/gorm"
)

// fakeUserRepo keeps users in memory instead of the database.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[uint]*model.User
	deleted map[uint]bool
	hashes  map[uint][]string
	nextID  uint
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:   make(map[uint]*model.User),
		deleted: make(map[uint]bool),
		hashes:  make(map[uint][]string),
	}
	for _, user := range users {
		repo.users[user.ID] = user
		if user.ID > repo.nextID {
			repo.nextID = user.ID
		}
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || f.deleted[id] {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found []model.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok && !f.deleted[id] {
			found = append(found, *user)
		}
	}
	return found, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, user := range f.users {
		if user.Email == email && !f.deleted[id] {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByGoogleID(ctx context.Context, googleID string, opts repository.UserQueryOptions) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, user := range f.users {
		if user.GoogleID != googleID {
			continue
		}
		if f.deleted[id] && !opts.WithDeleted {
			continue
		}
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.User
	for id, user := range f.users {
		if !f.deleted[id] {
			all = append(all, *user)
		}
	}
	return all, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateOnlineStatus(ctx context.Context, userID uint, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsOnline = online
	return nil
}

func (f *fakeUserRepo) SetAllOffline(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		user.IsOnline = false
	}
	return nil
}

func (f *fakeUserRepo) AddRefreshToken(ctx context.Context, userID uint, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes[userID] = append(f.hashes[userID], hash)
	return nil
}

// fakeChatRepo keeps chats and messages in memory. duplicateOnce simulates
// losing the direct chat creation race: a rival insert plus a unique
// index violation.
type fakeChatRepo struct {
	mu            sync.Mutex
	chats         map[uint]*model.Chat
	byKey         map[string]uint
	messages      map[uint][]model.Message
	nextChatID    uint
	nextMsgID     uint
	lastLimit     int
	lastOffset    int
	duplicateOnce bool
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    make(map[uint]*model.Chat),
		byKey:    make(map[string]uint),
		messages: make(map[uint][]model.Message),
	}
}

func (f *fakeChatRepo) FindByID(ctx context.Context, chatID uint) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[chatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *chat
	return &cp, nil
}

func (f *fakeChatRepo) FindByDirectKey(ctx context.Context, key string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chatID, ok := f.byKey[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f.chats[chatID]
	return &cp, nil
}

func (f *fakeChatRepo) insertDirect(key string, participants []model.User) *model.Chat {
	f.nextChatID++
	chat := &model.Chat{
		Model:        gorm.Model{ID: f.nextChatID, CreatedAt: time.Now()},
		DirectKey:    &key,
		Participants: participants,
	}
	f.chats[chat.ID] = chat
	f.byKey[key] = chat.ID
	return chat
}

func (f *fakeChatRepo) CreateDirect(ctx context.Context, key string, participants []model.User) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.duplicateOnce {
		f.duplicateOnce = false
		f.insertDirect(key, participants) // the rival got there first
		return nil, repository.ErrDuplicateKey
	}
	if _, exists := f.byKey[key]; exists {
		return nil, repository.ErrDuplicateKey
	}

	cp := *f.insertDirect(key, participants)
	return &cp, nil
}

func (f *fakeChatRepo) CreateGroup(ctx context.Context, name string, participants []model.User) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextChatID++
	chat := &model.Chat{
		Model:        gorm.Model{ID: f.nextChatID, CreatedAt: time.Now()},
		IsGroup:      true,
		Name:         name,
		Participants: participants,
	}
	f.chats[chat.ID] = chat
	cp := *chat
	return &cp, nil
}

func (f *fakeChatRepo) AddParticipant(ctx context.Context, chatID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	chat.Participants = append(chat.Participants, model.User{Model: gorm.Model{ID: userID}})
	return nil
}

func (f *fakeChatRepo) RemoveParticipant(ctx context.Context, chatID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := chat.Participants[:0]
	for _, p := range chat.Participants {
		if p.ID != userID {
			kept = append(kept, p)
		}
	}
	chat.Participants = kept
	return nil
}

func (f *fakeChatRepo) SaveMessage(ctx context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[msg.ChatID]; !ok {
		return repository.ErrNotFound
	}
	f.nextMsgID++
	msg.ID = f.nextMsgID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	f.messages[msg.ChatID] = append(f.messages[msg.ChatID], *msg)
	return nil
}

func (f *fakeChatRepo) GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastOffset = offset

	msgs := f.messages[chatID]
	if offset >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if limit < len(msgs) {
		msgs = msgs[:limit]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeChatRepo) LastMessage(ctx context.Context, chatID uint) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[chatID]
	if len(msgs) == 0 {
		return nil, repository.ErrNotFound
	}
	last := msgs[len(msgs)-1]
	return &last, nil
}

func (f *fakeChatRepo) GetChatsForUser(ctx context.Context, userID uint) ([]model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Chat
	for _, chat := range f.chats {
		if chat.HasParticipant(userID) {
			result = append(result, *chat)
		}
	}
	return result, nil
}

// fakeSink records notifications the service pushes towards the gateway.
type fakeSink struct {
	mu           sync.Mutex
	createdChats []uint
	excluded     []uint
	messages     []*model.Message
	participants [][]model.User
}

func (f *fakeSink) NewChatCreated(chat *model.Chat, excludeUserID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdChats = append(f.createdChats, chat.ID)
	f.excluded = append(f.excluded, excludeUserID)
}

func (f *fakeSink) NewMessage(chatID uint, msg *model.Message, participants []model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	f.participants = append(f.participants, participants)
}

func testUser(id uint, email string) *model.User {
	return &model.User{
		Model: gorm.Model{ID: id},
		Email: email,
	}
}
