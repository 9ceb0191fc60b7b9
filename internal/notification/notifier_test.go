package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairchat/internal/adapter/repository"
	"pairchat/internal/domain/entity"
	domainrepo "pairchat/internal/domain/repository"
	"pairchat/pkg/clock"
)

type captured struct {
	userID string
	chatID string
	sender string
}

func setup(t *testing.T) (domainrepo.ChatStore, *clock.Manual, *Notifier) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := repository.NewMemoryChatStore(clk)
	return store, clk, NewNotifier(store)
}

func TestNotifierFiresOnIncomingMessage(t *testing.T) {
	store, clk, notifier := setup(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)

	var got []captured
	unsub := notifier.Watch(ctx, "3", func(userID string, c *entity.Chat) {
		got = append(got, captured{userID: userID, chatID: c.ID, sender: c.LastMessage.SenderID})
	})
	defer unsub()

	// The replay only primes the baseline.
	assert.Empty(t, got)

	clk.Advance(time.Second)
	_, err = store.SendMessage(ctx, chat.ID, "2", entity.TextContent("hey"))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, captured{userID: "3", chatID: chat.ID, sender: "2"}, got[0])
}

func TestNotifierIgnoresOwnMessages(t *testing.T) {
	store, clk, notifier := setup(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)

	fired := 0
	unsub := notifier.Watch(ctx, "3", func(string, *entity.Chat) { fired++ })
	defer unsub()

	clk.Advance(time.Second)
	_, err = store.SendMessage(ctx, chat.ID, "3", entity.TextContent("my own message"))
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	clk.Advance(time.Second)
	_, err = store.SendMessage(ctx, chat.ID, "2", entity.TextContent("a reply"))
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestNotifierIgnoresFreshEmptyChats(t *testing.T) {
	store, _, notifier := setup(t)
	ctx := context.Background()

	fired := 0
	unsub := notifier.Watch(ctx, "3", func(string, *entity.Chat) { fired++ })
	defer unsub()

	// A new chat has no last message sender, so no notification fires.
	_, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestRewatchDoesNotReplayOldActivity(t *testing.T) {
	store, clk, notifier := setup(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)

	fired := 0
	unsub := notifier.Watch(ctx, "3", func(string, *entity.Chat) { fired++ })

	clk.Advance(time.Second)
	_, err = store.SendMessage(ctx, chat.ID, "2", entity.TextContent("while watching"))
	require.NoError(t, err)
	require.Equal(t, 1, fired)
	unsub()

	// Activity while nobody is watching.
	clk.Advance(time.Second)
	_, err = store.SendMessage(ctx, chat.ID, "2", entity.TextContent("while away"))
	require.NoError(t, err)

	refired := 0
	unsub2 := notifier.Watch(ctx, "3", func(string, *entity.Chat) { refired++ })
	defer unsub2()

	// The replay of the new watch primes its baseline, nothing more.
	assert.Equal(t, 0, refired)

	clk.Advance(time.Second)
	_, err = store.SendMessage(ctx, chat.ID, "2", entity.TextContent("fresh"))
	require.NoError(t, err)
	assert.Equal(t, 1, refired)
}

func TestNotifierStopsAfterUnsubscribe(t *testing.T) {
	store, clk, notifier := setup(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "2", "3")
	require.NoError(t, err)

	fired := 0
	unsub := notifier.Watch(ctx, "3", func(string, *entity.Chat) { fired++ })
	unsub()

	clk.Advance(time.Second)
	_, err = store.SendMessage(ctx, chat.ID, "2", entity.TextContent("unseen"))
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}
