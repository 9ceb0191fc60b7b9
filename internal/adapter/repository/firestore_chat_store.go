package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/pkg/errors"
	"pairchat/pkg/logger"
)

// firestoreChatStore is the production backend. It mirrors the in-memory
// store's contract on top of Firestore: chats in the "chats" collection,
// messages in a per-chat "messages" subcollection, typing state in a per-chat
// "typing" subcollection, and the Subscribe methods backed by Firestore
// snapshot listeners. Fan-out here is asynchronous by nature of the backend;
// the unsubscribe guarantee is kept by the same closed-handle discipline the
// memory store uses.
type firestoreChatStore struct {
	client *firestore.Client
}

func NewFirestoreChatStore(client *firestore.Client) repository.ChatStore {
	return &firestoreChatStore{
		client: client,
	}
}

func (r *firestoreChatStore) CreateChat(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	if userA == "" || userB == "" {
		return nil, errors.InvalidArgument("participant ids are required", nil)
	}
	if userA == userB {
		return nil, errors.InvalidArgument("chat participants must be distinct", nil)
	}

	if existing, err := r.getChatByParticipants(ctx, userA, userB); err == nil {
		return existing, nil
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	now := time.Now()
	chat := &entity.Chat{
		ID:           uuid.New().String(),
		Participants: []string{userA, userB},
		CreatedAt:    now,
		LastMessage:  entity.LastMessage{Kind: entity.MessageKindText, Timestamp: now},
	}

	if _, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat); err != nil {
		return nil, errors.Upstream("Failed to create chat", err)
	}

	return chat, nil
}

func (r *firestoreChatStore) getChatByParticipants(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	query := r.client.Collection("chats").Where("participants", "array-contains", userA)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Upstream("Failed to query chats", err)
	}

	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			continue // Skip malformed documents
		}
		if chat.HasParticipant(userB) {
			chat.ID = doc.Ref.ID
			return &chat, nil
		}
	}

	return nil, errors.NotFound("Chat", nil)
}

func (r *firestoreChatStore) GetChatByID(ctx context.Context, chatID string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(chatID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Upstream("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatStore) ListChatsForUser(ctx context.Context, userID string) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").Where("participants", "array-contains", userID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, errors.Upstream("Failed to fetch chats", err)
	}

	chats := make([]*entity.Chat, 0, len(docs))
	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			logger.Warn("Skipping malformed chat document %s: %v", doc.Ref.ID, err)
			continue
		}
		chats = append(chats, &chat)
	}

	sortChatsByActivity(chats)
	return chats, nil
}

func (r *firestoreChatStore) SubscribeToUserChats(ctx context.Context, userID string, fn repository.ChatListener) repository.Unsubscribe {
	sub := &chatSubscription{fn: fn}
	watchCtx, cancel := context.WithCancel(ctx)

	query := r.client.Collection("chats").Where("participants", "array-contains", userID)
	iter := query.Snapshots(watchCtx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Chat snapshot listener for user %s stopped: %v", userID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("Failed to read chat snapshot for user %s: %v", userID, err)
				continue
			}
			chats := make([]*entity.Chat, 0, len(docs))
			for _, doc := range docs {
				var chat entity.Chat
				if err := doc.DataTo(&chat); err != nil {
					continue
				}
				chats = append(chats, &chat)
			}
			sortChatsByActivity(chats)

			sub.deliver(func() { fn(chats) })
		}
	}()

	return func() {
		cancel()
		sub.close()
	}
}

func (r *firestoreChatStore) SendMessage(ctx context.Context, chatID, senderID string, content entity.MessageContent) (*entity.Message, error) {
	if chatID == "" || senderID == "" {
		return nil, errors.InvalidArgument("chat id and sender id are required", nil)
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	chat, err := r.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, errors.Unauthorized("sender is not a chat participant", nil)
	}

	ts := time.Now()
	if ts.Before(chat.LastMessage.Timestamp) {
		ts = chat.LastMessage.Timestamp
	}

	msg := &entity.Message{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		SenderID:  senderID,
		Kind:      content.Kind,
		Text:      content.Text,
		FileURL:   content.FileURL,
		Timestamp: ts,
	}

	if _, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(msg.ID).Set(ctx, msg); err != nil {
		return nil, errors.Upstream("Failed to create message", err)
	}

	chat.LastMessage = msg.Summary()
	if _, err := r.client.Collection("chats").Doc(chatID).Set(ctx, chat); err != nil {
		return nil, errors.Upstream("Failed to update chat summary", err)
	}

	return msg, nil
}

func (r *firestoreChatStore) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	if _, err := r.GetChatByID(ctx, chatID); err != nil {
		return nil, err
	}

	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("timestamp", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for chat %s: %v", chatID, err)
		return nil, errors.Upstream("Failed to fetch messages", err)
	}

	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			logger.Warn("Skipping malformed message document %s: %v", doc.Ref.ID, err)
			continue
		}
		messages = append(messages, &msg)
	}

	return messages, nil
}

func (r *firestoreChatStore) SubscribeToMessages(ctx context.Context, chatID string, fn repository.MessageListener) repository.Unsubscribe {
	sub := &messageSubscription{fn: fn}
	watchCtx, cancel := context.WithCancel(ctx)

	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("timestamp", firestore.Asc)
	iter := query.Snapshots(watchCtx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Message snapshot listener for chat %s stopped: %v", chatID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("Failed to read message snapshot for chat %s: %v", chatID, err)
				continue
			}
			messages := make([]*entity.Message, 0, len(docs))
			for _, doc := range docs {
				var msg entity.Message
				if err := doc.DataTo(&msg); err != nil {
					continue
				}
				messages = append(messages, &msg)
			}

			sub.deliver(func() { fn(messages) })
		}
	}()

	return func() {
		cancel()
		sub.close()
	}
}

func (r *firestoreChatStore) SetTypingStatus(ctx context.Context, chatID, userID string, isTyping bool) error {
	if chatID == "" || userID == "" {
		return errors.InvalidArgument("chat id and user id are required", nil)
	}

	chat, err := r.GetChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Unauthorized("user is not a chat participant", nil)
	}

	typing := entity.TypingStatus{
		ChatID:    chatID,
		UserID:    userID,
		IsTyping:  isTyping,
		Timestamp: time.Now(),
	}

	if _, err := r.client.Collection("chats").Doc(chatID).Collection("typing").Doc(userID).Set(ctx, typing); err != nil {
		return errors.Upstream("Failed to update typing status", err)
	}

	return nil
}

func (r *firestoreChatStore) SubscribeToTyping(ctx context.Context, chatID, watchedUserID string, fn repository.TypingListener) repository.Unsubscribe {
	sub := &typingSubscription{fn: fn}
	watchCtx, cancel := context.WithCancel(ctx)

	ref := r.client.Collection("chats").Doc(chatID).Collection("typing").Doc(watchedUserID)
	iter := ref.Snapshots(watchCtx)

	go func() {
		defer iter.Stop()
		for {
			doc, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Typing snapshot listener for chat %s stopped: %v", chatID, err)
				}
				return
			}

			isTyping := false
			if doc.Exists() {
				var typing entity.TypingStatus
				if err := doc.DataTo(&typing); err == nil {
					isTyping = typing.IsTyping
				}
			}

			sub.deliver(func() { fn(isTyping) })
		}
	}()

	return func() {
		cancel()
		sub.close()
	}
}

func (r *firestoreChatStore) MarkMessageRead(ctx context.Context, chatID, messageID string) error {
	if _, err := r.GetChatByID(ctx, chatID); err != nil {
		return err
	}

	docRef := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID)
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", nil)
		}
		return errors.Upstream("Failed to get message", err)
	}

	var msg entity.Message
	if err := doc.DataTo(&msg); err != nil {
		return errors.Internal("Failed to parse message data", err)
	}
	if msg.Read {
		return nil // Already marked as read
	}

	msg.Read = true
	if _, err := docRef.Set(ctx, &msg); err != nil {
		return errors.Upstream("Failed to update message read status", err)
	}

	return nil
}

func sortChatsByActivity(chats []*entity.Chat) {
	sort.Slice(chats, func(i, j int) bool {
		ti, tj := chats[i].LastMessage.Timestamp, chats[j].LastMessage.Timestamp
		if ti.Equal(tj) {
			return chats[i].ID < chats[j].ID
		}
		return ti.After(tj)
	})
}
