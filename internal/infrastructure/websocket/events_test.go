package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairchat/internal/adapter/repository"
	"pairchat/internal/domain/entity"
	domainrepo "pairchat/internal/domain/repository"
	"pairchat/pkg/clock"
)

func newTestManager(t *testing.T) (*Manager, domainrepo.ChatStore) {
	t.Helper()
	store := repository.NewMemoryChatStore(clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	return NewManager(store, nil), store
}

// drainFrames empties the client's send buffer and decodes every frame. The
// store fans out synchronously, so anything due is already queued.
func drainFrames(t *testing.T, client *Client) []WSMessage {
	t.Helper()
	var frames []WSMessage
	for {
		select {
		case raw := <-client.Send:
			var msg WSMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			frames = append(frames, msg)
		default:
			return frames
		}
	}
}

func frame(t *testing.T, msgType string, data interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	raw, err := json.Marshal(WSMessage{Type: msgType, Data: payload})
	require.NoError(t, err)
	return raw
}

func TestHandlePing(t *testing.T) {
	m, _ := newTestManager(t)
	client := NewClient("2", nil)

	m.HandleClientMessage(client, frame(t, ActionPing, map[string]string{}))

	frames := drainFrames(t, client)
	require.Len(t, frames, 1)
	assert.Equal(t, EventPong, frames[0].Type)
}

func TestHandleInvalidFrame(t *testing.T) {
	m, _ := newTestManager(t)
	client := NewClient("2", nil)

	m.HandleClientMessage(client, []byte("not json"))

	frames := drainFrames(t, client)
	require.Len(t, frames, 1)
	assert.Equal(t, EventError, frames[0].Type)

	m.HandleClientMessage(client, frame(t, "bogus_action", map[string]string{}))
	frames = drainFrames(t, client)
	require.Len(t, frames, 1)
	assert.Equal(t, EventError, frames[0].Type)
}

func TestSubscribeMessagesStream(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)

	bob := NewClient("3", nil)
	m.HandleClientMessage(bob, frame(t, ActionSubscribeMessages, chatActionData{ChatID: chat.ID}))

	// Immediate replay of the (empty) history.
	frames := drainFrames(t, bob)
	require.Len(t, frames, 1)
	assert.Equal(t, EventMessages, frames[0].Type)

	alice := NewClient("2", nil)
	m.HandleClientMessage(alice, frame(t, ActionSendMessage, sendMessageData{
		ChatID: chat.ID,
		Kind:   "text",
		Text:   "hello Bob",
	}))
	assert.Empty(t, drainFrames(t, alice)) // no error frame

	frames = drainFrames(t, bob)
	require.Len(t, frames, 1)
	var msgs []*entity.Message
	require.NoError(t, json.Unmarshal(frames[0].Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello Bob", msgs[0].Text)
	assert.Equal(t, "2", msgs[0].SenderID)
}

func TestUnsubscribeMessagesStream(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)

	bob := NewClient("3", nil)
	m.HandleClientMessage(bob, frame(t, ActionSubscribeMessages, chatActionData{ChatID: chat.ID}))
	drainFrames(t, bob)

	m.HandleClientMessage(bob, frame(t, ActionUnsubscribeMessages, chatActionData{ChatID: chat.ID}))

	_, err = store.SendMessage(ctx, chat.ID, "2", entity.TextContent("unseen"))
	require.NoError(t, err)
	assert.Empty(t, drainFrames(t, bob))
}

func TestSubscribeMessagesRequiresParticipation(t *testing.T) {
	m, store := newTestManager(t)

	chat, err := store.CreateChat(context.Background(), "2", "3")
	require.NoError(t, err)

	outsider := NewClient("99", nil)
	m.HandleClientMessage(outsider, frame(t, ActionSubscribeMessages, chatActionData{ChatID: chat.ID}))

	frames := drainFrames(t, outsider)
	require.Len(t, frames, 1)
	assert.Equal(t, EventError, frames[0].Type)
}

func TestTypingStreamWatchesCounterpart(t *testing.T) {
	m, store := newTestManager(t)

	chat, err := store.CreateChat(context.Background(), "2", "3")
	require.NoError(t, err)

	bob := NewClient("3", nil)
	m.HandleClientMessage(bob, frame(t, ActionSubscribeTyping, chatActionData{ChatID: chat.ID}))
	frames := drainFrames(t, bob)
	require.Len(t, frames, 1)
	assert.Equal(t, EventTyping, frames[0].Type)

	// Bob's own typing is not echoed back to him.
	m.HandleClientMessage(bob, frame(t, ActionSetTyping, setTypingData{ChatID: chat.ID, IsTyping: true}))
	assert.Empty(t, drainFrames(t, bob))

	alice := NewClient("2", nil)
	m.HandleClientMessage(alice, frame(t, ActionSetTyping, setTypingData{ChatID: chat.ID, IsTyping: true}))

	frames = drainFrames(t, bob)
	require.Len(t, frames, 1)
	var data typingEventData
	require.NoError(t, json.Unmarshal(frames[0].Data, &data))
	assert.Equal(t, "2", data.UserID)
	assert.True(t, data.IsTyping)
}

func TestMarkReadOverSocket(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)
	msg, err := store.SendMessage(ctx, chat.ID, "2", entity.TextContent("hello"))
	require.NoError(t, err)

	bob := NewClient("3", nil)
	m.HandleClientMessage(bob, frame(t, ActionMarkRead, markReadData{ChatID: chat.ID, MessageID: msg.ID}))
	assert.Empty(t, drainFrames(t, bob))

	msgs, err := store.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.True(t, msgs[0].Read)
}
