package notification

import (
	"context"
	"sync"
	"time"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/pkg/logger"
)

// DispatchFunc delivers one notification about new activity in a chat.
type DispatchFunc func(userID string, chat *entity.Chat)

// Notifier is a pure consumer of the chat subscription stream. It watches a
// user's chat list and dispatches a notification whenever a chat's last
// message advances and the user is not the sender. It never mutates the
// store.
type Notifier struct {
	store repository.ChatStore
}

func NewNotifier(store repository.ChatStore) *Notifier {
	return &Notifier{store: store}
}

// Watch subscribes to the user's chat list. Each watch keeps its own
// baseline, so the initial replay only primes it and never dispatches;
// notifications fire for activity after the watch starts. A nil dispatch
// logs instead.
func (n *Notifier) Watch(ctx context.Context, userID string, dispatch DispatchFunc) repository.Unsubscribe {
	if dispatch == nil {
		dispatch = func(userID string, chat *entity.Chat) {
			logger.Info("notification for %s: new message from %s in chat %s", userID, chat.LastMessage.SenderID, chat.ID)
		}
	}

	var mu sync.Mutex
	baseline := make(map[string]time.Time) // chatID -> last summary timestamp

	return n.store.SubscribeToUserChats(ctx, userID, func(chats []*entity.Chat) {
		var fire []*entity.Chat

		mu.Lock()
		for _, chat := range chats {
			last, known := baseline[chat.ID]
			ts := chat.LastMessage.Timestamp
			if known && ts.After(last) && chat.LastMessage.SenderID != userID && chat.LastMessage.SenderID != "" {
				fire = append(fire, chat)
			}
			if !known || ts.After(last) {
				baseline[chat.ID] = ts
			}
		}
		mu.Unlock()

		for _, chat := range fire {
			dispatch(userID, chat)
		}
	})
}
