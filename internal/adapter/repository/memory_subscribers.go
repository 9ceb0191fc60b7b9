package repository

import (
	"sync"

	"pairchat/internal/domain/repository"
)

// subscription is one registered listener handle. close marks the handle
// dead under mu; deliver re-checks the flag right before invoking but runs
// the callback outside the lock, so a listener may unsubscribe itself from
// inside its own callback. Removal from the store's registry happens under
// the store lock, so no later mutation delivers to a closed handle.
type subscription struct {
	mu     sync.Mutex
	closed bool
}

func (s *subscription) deliver(fn func()) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	fn()
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type chatSubscription struct {
	subscription
	fn repository.ChatListener
}

type messageSubscription struct {
	subscription
	fn repository.MessageListener
}

type typingSubscription struct {
	subscription
	fn repository.TypingListener
}

// typingKey identifies the (chat, user) pair a typing listener watches.
type typingKey struct {
	chatID string
	userID string
}
