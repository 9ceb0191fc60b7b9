package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func registered(m *Manager, userID string) *Client {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.clients[userID]
}

func TestUnregisterKeepsReplacementConnection(t *testing.T) {
	m, _ := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	first := NewClient("2", nil)
	second := NewClient("2", nil)

	m.Register <- first
	m.Register <- second
	assert.Eventually(t, func() bool {
		return registered(m, "2") == second
	}, time.Second, 10*time.Millisecond)

	// Tearing down the stale connection must not evict the new one. The send
	// channel closes last, so its closure means teardown has finished.
	m.Unregister <- first
	deadline := time.After(time.Second)
	for done := false; !done; {
		select {
		case _, ok := <-first.Send:
			done = !ok
		case <-deadline:
			t.Fatal("stale connection was never torn down")
		}
	}
	assert.Equal(t, second, registered(m, "2"))
}

func TestUnregisterRemovesCurrentConnection(t *testing.T) {
	m, _ := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	client := NewClient("2", nil)
	m.Register <- client
	m.Unregister <- client

	assert.Eventually(t, func() bool {
		return registered(m, "2") == nil
	}, time.Second, 10*time.Millisecond)
}
