package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/internal/notification"
	"pairchat/pkg/logger"
)

// Client represents a WebSocket connection client
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	unsubs map[string]repository.Unsubscribe // stream name -> unsubscribe
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		unsubs: make(map[string]repository.Unsubscribe),
	}
}

func (c *Client) addStream(name string, unsub repository.Unsubscribe) {
	c.mu.Lock()
	prev := c.unsubs[name]
	c.unsubs[name] = unsub
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

func (c *Client) dropStream(name string) {
	c.mu.Lock()
	unsub := c.unsubs[name]
	delete(c.unsubs, name)
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (c *Client) dropAllStreams() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = make(map[string]repository.Unsubscribe)
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Manager owns all active WebSocket connections and bridges the chat store's
// subscription streams onto them.
type Manager struct {
	store    repository.ChatStore
	notifier *notification.Notifier

	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	ctx context.Context
}

func NewManager(store repository.ChatStore, notifier *notification.Notifier) *Manager {
	return &Manager{
		store:      store,
		notifier:   notifier,
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		ctx:        context.Background(),
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	m.ctx = ctx

	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				m.attachBaseStreams(client)
				logger.Info("WebSocket client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				// A reconnect may have replaced this user's entry; only
				// evict the map entry if it is still this connection.
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
				}
				m.mutex.Unlock()
				client.dropAllStreams()
				close(client.Send)
				logger.Info("WebSocket client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// attachBaseStreams wires the streams every connection gets: the user's chat
// list and new-message notifications.
func (m *Manager) attachBaseStreams(client *Client) {
	client.addStream("chats", m.store.SubscribeToUserChats(m.ctx, client.UserID, func(chats []*entity.Chat) {
		m.sendEvent(client, EventChats, chats)
	}))

	if m.notifier != nil {
		client.addStream("notifications", m.notifier.Watch(m.ctx, client.UserID, func(userID string, chat *entity.Chat) {
			m.sendEvent(client, EventNotification, notificationEventData{
				ChatID:   chat.ID,
				SenderID: chat.LastMessage.SenderID,
				Preview:  chat.LastMessage.Text,
			})
		}))
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("WebSocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
