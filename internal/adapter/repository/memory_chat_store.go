package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/pkg/clock"
	"pairchat/pkg/errors"
)

// memoryChatStore keeps the full chat state in process and notifies
// registered listeners synchronously after each mutation. State updates and
// fan-out snapshots happen under the store lock; listener callbacks run
// outside it, so a listener may call back into the store.
type memoryChatStore struct {
	mu    sync.Mutex
	clock clock.Clock

	chats       map[string]*entity.Chat
	chatsByUser map[string][]string
	messages    map[string][]*entity.Message
	typing      map[typingKey]entity.TypingStatus
	lastStamp   map[string]time.Time // per-chat timestamp floor

	nextHandle  uint64
	chatSubs    map[string]map[uint64]*chatSubscription
	messageSubs map[string]map[uint64]*messageSubscription
	typingSubs  map[typingKey]map[uint64]*typingSubscription
}

func NewMemoryChatStore(clk clock.Clock) repository.ChatStore {
	if clk == nil {
		clk = clock.System()
	}
	return &memoryChatStore{
		clock:       clk,
		chats:       make(map[string]*entity.Chat),
		chatsByUser: make(map[string][]string),
		messages:    make(map[string][]*entity.Message),
		typing:      make(map[typingKey]entity.TypingStatus),
		lastStamp:   make(map[string]time.Time),
		chatSubs:    make(map[string]map[uint64]*chatSubscription),
		messageSubs: make(map[string]map[uint64]*messageSubscription),
		typingSubs:  make(map[typingKey]map[uint64]*typingSubscription),
	}
}

func (s *memoryChatStore) CreateChat(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	if userA == "" || userB == "" {
		return nil, errors.InvalidArgument("participant ids are required", nil)
	}
	if userA == userB {
		return nil, errors.InvalidArgument("chat participants must be distinct", nil)
	}

	s.mu.Lock()
	if existing := s.chatByPairLocked(userA, userB); existing != nil {
		out := cloneChat(existing)
		s.mu.Unlock()
		return out, nil
	}

	now := s.clock.Now()
	chat := &entity.Chat{
		ID:           uuid.New().String(),
		Participants: []string{userA, userB},
		CreatedAt:    now,
		// A fresh chat carries an empty summary stamped with its creation
		// time so it sorts to the top of both participants' lists.
		LastMessage: entity.LastMessage{Kind: entity.MessageKindText, Timestamp: now},
	}
	s.chats[chat.ID] = chat
	s.chatsByUser[userA] = append(s.chatsByUser[userA], chat.ID)
	s.chatsByUser[userB] = append(s.chatsByUser[userB], chat.ID)
	s.lastStamp[chat.ID] = now

	out := cloneChat(chat)
	notify := s.chatListFanoutLocked(userA, userB)
	s.mu.Unlock()

	notify()
	return out, nil
}

func (s *memoryChatStore) GetChatByID(ctx context.Context, chatID string) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return cloneChat(chat), nil
}

func (s *memoryChatStore) ListChatsForUser(ctx context.Context, userID string) ([]*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatsForUserLocked(userID), nil
}

func (s *memoryChatStore) SubscribeToUserChats(ctx context.Context, userID string, fn repository.ChatListener) repository.Unsubscribe {
	sub := &chatSubscription{fn: fn}

	s.mu.Lock()
	id := s.nextHandle
	s.nextHandle++
	if s.chatSubs[userID] == nil {
		s.chatSubs[userID] = make(map[uint64]*chatSubscription)
	}
	s.chatSubs[userID][id] = sub
	snapshot := s.chatsForUserLocked(userID)
	s.mu.Unlock()

	sub.deliver(func() { fn(snapshot) })

	return func() {
		s.mu.Lock()
		delete(s.chatSubs[userID], id)
		s.mu.Unlock()
		sub.close()
	}
}

func (s *memoryChatStore) SendMessage(ctx context.Context, chatID, senderID string, content entity.MessageContent) (*entity.Message, error) {
	if chatID == "" || senderID == "" {
		return nil, errors.InvalidArgument("chat id and sender id are required", nil)
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		return nil, errors.NotFound("Chat", nil)
	}
	if !chat.HasParticipant(senderID) {
		s.mu.Unlock()
		return nil, errors.Unauthorized("sender is not a chat participant", nil)
	}

	// Timestamps are non-decreasing within a chat even if the wall clock
	// steps backwards; insertion order then breaks ties.
	ts := s.clock.Now()
	if floor := s.lastStamp[chatID]; ts.Before(floor) {
		ts = floor
	}
	s.lastStamp[chatID] = ts

	msg := &entity.Message{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		SenderID:  senderID,
		Kind:      content.Kind,
		Text:      content.Text,
		FileURL:   content.FileURL,
		Timestamp: ts,
	}
	s.messages[chatID] = append(s.messages[chatID], msg)
	chat.LastMessage = msg.Summary()

	out := cloneMessage(msg)
	chatNotify := s.chatListFanoutLocked(chat.Participants...)
	msgNotify := s.messageFanoutLocked(chatID)
	s.mu.Unlock()

	chatNotify()
	msgNotify()
	return out, nil
}

func (s *memoryChatStore) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return s.messagesForChatLocked(chatID), nil
}

func (s *memoryChatStore) SubscribeToMessages(ctx context.Context, chatID string, fn repository.MessageListener) repository.Unsubscribe {
	sub := &messageSubscription{fn: fn}

	s.mu.Lock()
	id := s.nextHandle
	s.nextHandle++
	if s.messageSubs[chatID] == nil {
		s.messageSubs[chatID] = make(map[uint64]*messageSubscription)
	}
	s.messageSubs[chatID][id] = sub
	snapshot := s.messagesForChatLocked(chatID)
	s.mu.Unlock()

	sub.deliver(func() { fn(snapshot) })

	return func() {
		s.mu.Lock()
		delete(s.messageSubs[chatID], id)
		s.mu.Unlock()
		sub.close()
	}
}

func (s *memoryChatStore) SetTypingStatus(ctx context.Context, chatID, userID string, isTyping bool) error {
	if chatID == "" || userID == "" {
		return errors.InvalidArgument("chat id and user id are required", nil)
	}

	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		return errors.NotFound("Chat", nil)
	}
	if !chat.HasParticipant(userID) {
		s.mu.Unlock()
		return errors.Unauthorized("user is not a chat participant", nil)
	}

	key := typingKey{chatID: chatID, userID: userID}
	s.typing[key] = entity.TypingStatus{
		ChatID:    chatID,
		UserID:    userID,
		IsTyping:  isTyping,
		Timestamp: s.clock.Now(),
	}
	notify := s.typingFanoutLocked(key, isTyping)
	s.mu.Unlock()

	notify()
	return nil
}

func (s *memoryChatStore) SubscribeToTyping(ctx context.Context, chatID, watchedUserID string, fn repository.TypingListener) repository.Unsubscribe {
	sub := &typingSubscription{fn: fn}
	key := typingKey{chatID: chatID, userID: watchedUserID}

	s.mu.Lock()
	id := s.nextHandle
	s.nextHandle++
	if s.typingSubs[key] == nil {
		s.typingSubs[key] = make(map[uint64]*typingSubscription)
	}
	s.typingSubs[key][id] = sub
	current := s.typing[key].IsTyping
	s.mu.Unlock()

	sub.deliver(func() { fn(current) })

	return func() {
		s.mu.Lock()
		delete(s.typingSubs[key], id)
		s.mu.Unlock()
		sub.close()
	}
}

func (s *memoryChatStore) MarkMessageRead(ctx context.Context, chatID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return errors.NotFound("Chat", nil)
	}
	for _, msg := range s.messages[chatID] {
		if msg.ID == messageID {
			msg.Read = true
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (s *memoryChatStore) chatByPairLocked(userA, userB string) *entity.Chat {
	for _, id := range s.chatsByUser[userA] {
		chat := s.chats[id]
		if chat != nil && chat.HasParticipant(userB) {
			return chat
		}
	}
	return nil
}

func (s *memoryChatStore) chatsForUserLocked(userID string) []*entity.Chat {
	ids := s.chatsByUser[userID]
	chats := make([]*entity.Chat, 0, len(ids))
	for _, id := range ids {
		if chat, ok := s.chats[id]; ok {
			chats = append(chats, cloneChat(chat))
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		ti, tj := chats[i].LastMessage.Timestamp, chats[j].LastMessage.Timestamp
		if ti.Equal(tj) {
			return chats[i].ID < chats[j].ID
		}
		return ti.After(tj)
	})
	return chats
}

// messagesForChatLocked copies the message slice. Timestamps are assigned
// monotonically at append time, so insertion order is already ascending.
func (s *memoryChatStore) messagesForChatLocked(chatID string) []*entity.Message {
	msgs := s.messages[chatID]
	out := make([]*entity.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, cloneMessage(msg))
	}
	return out
}

func (s *memoryChatStore) chatListFanoutLocked(userIDs ...string) func() {
	var pending []func()
	for _, userID := range userIDs {
		subs := s.chatSubs[userID]
		if len(subs) == 0 {
			continue
		}
		snapshot := s.chatsForUserLocked(userID)
		for _, sub := range subs {
			sub := sub
			pending = append(pending, func() {
				sub.deliver(func() { sub.fn(snapshot) })
			})
		}
	}
	return func() {
		for _, fn := range pending {
			fn()
		}
	}
}

func (s *memoryChatStore) messageFanoutLocked(chatID string) func() {
	subs := s.messageSubs[chatID]
	if len(subs) == 0 {
		return func() {}
	}
	snapshot := s.messagesForChatLocked(chatID)
	var pending []func()
	for _, sub := range subs {
		sub := sub
		pending = append(pending, func() {
			sub.deliver(func() { sub.fn(snapshot) })
		})
	}
	return func() {
		for _, fn := range pending {
			fn()
		}
	}
}

func (s *memoryChatStore) typingFanoutLocked(key typingKey, isTyping bool) func() {
	subs := s.typingSubs[key]
	if len(subs) == 0 {
		return func() {}
	}
	var pending []func()
	for _, sub := range subs {
		sub := sub
		pending = append(pending, func() {
			sub.deliver(func() { sub.fn(isTyping) })
		})
	}
	return func() {
		for _, fn := range pending {
			fn()
		}
	}
}

func validateContent(content entity.MessageContent) error {
	switch content.Kind {
	case entity.MessageKindText:
		if content.Text == "" {
			return errors.InvalidArgument("message text is required", nil)
		}
	case entity.MessageKindImage:
		if content.FileURL == "" {
			return errors.InvalidArgument("file url is required", nil)
		}
	default:
		return errors.InvalidArgument(fmt.Sprintf("unknown message kind %q", content.Kind), nil)
	}
	return nil
}

func cloneChat(c *entity.Chat) *entity.Chat {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	return &out
}

func cloneMessage(m *entity.Message) *entity.Message {
	out := *m
	return &out
}
