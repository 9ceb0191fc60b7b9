package repository

import (
	"context"

	"pairchat/internal/domain/entity"
)

// Unsubscribe deregisters a listener. It is safe to call more than once, and
// from inside the listener's own callback; once it returns, no new delivery
// to the listener is started.
type Unsubscribe func()

type ChatListener func(chats []*entity.Chat)

type MessageListener func(messages []*entity.Message)

type TypingListener func(isTyping bool)

// ChatStore is the storage boundary for chats, messages and typing state.
// The in-memory implementation is the development backend; the Firestore
// implementation is the production one. Swapping backends changes only the
// adapter, never the callers.
//
// Every mutation is atomic with respect to its own state update and listener
// fan-out: the mutation is fully applied, then every registered listener is
// notified before the call returns.
type ChatStore interface {
	// CreateChat returns the existing chat when the unordered pair already
	// has one (idempotent create). On a fresh create it fires the chat-list
	// fan-out for both participants.
	CreateChat(ctx context.Context, userA, userB string) (*entity.Chat, error)

	GetChatByID(ctx context.Context, chatID string) (*entity.Chat, error)

	// ListChatsForUser returns the user's chats sorted by last-message
	// timestamp descending, ties broken by chat id ascending.
	ListChatsForUser(ctx context.Context, userID string) ([]*entity.Chat, error)

	// SubscribeToUserChats invokes fn synchronously with the current list
	// before returning (an empty slice when the user has no chats), then
	// again after every mutation affecting the user's chat set.
	SubscribeToUserChats(ctx context.Context, userID string, fn ChatListener) Unsubscribe

	// SendMessage appends a message with a per-chat monotonically
	// non-decreasing timestamp, updates the chat's last-message summary and
	// fires both the chat-list fan-out for each participant and the message
	// fan-out for the chat.
	SendMessage(ctx context.Context, chatID, senderID string, content entity.MessageContent) (*entity.Message, error)

	// ListMessages returns the chat's messages ascending by timestamp,
	// insertion order breaking ties.
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)

	SubscribeToMessages(ctx context.Context, chatID string, fn MessageListener) Unsubscribe

	// SetTypingStatus overwrites the (chat, user) typing flag in place and
	// notifies only the listeners watching that exact pair.
	SetTypingStatus(ctx context.Context, chatID, userID string, isTyping bool) error

	// SubscribeToTyping delivers the current flag immediately, then every
	// subsequent SetTypingStatus for the watched pair.
	SubscribeToTyping(ctx context.Context, chatID, watchedUserID string, fn TypingListener) Unsubscribe

	// MarkMessageRead is idempotent and does not notify listeners; read
	// receipts are not re-broadcast.
	MarkMessageRead(ctx context.Context, chatID, messageID string) error
}
