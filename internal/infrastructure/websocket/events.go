package websocket

import (
	"encoding/json"
	"time"

	"pairchat/internal/domain/entity"
	"pairchat/pkg/logger"
)

// Server -> client event types
const (
	EventChats        = "chats"
	EventMessages     = "messages"
	EventTyping       = "typing"
	EventNotification = "notification"
	EventError        = "error"
	EventPong         = "pong"
)

// Client -> server action types
const (
	ActionPing                = "ping"
	ActionSendMessage         = "send_message"
	ActionSubscribeMessages   = "subscribe_messages"
	ActionUnsubscribeMessages = "unsubscribe_messages"
	ActionSubscribeTyping     = "subscribe_typing"
	ActionUnsubscribeTyping   = "unsubscribe_typing"
	ActionSetTyping           = "set_typing"
	ActionMarkRead            = "mark_read"
)

// WSMessage is the envelope for both directions of the socket.
type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type chatActionData struct {
	ChatID string `json:"chat_id"`
}

type sendMessageData struct {
	ChatID  string `json:"chat_id"`
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	FileURL string `json:"file_url,omitempty"`
}

type setTypingData struct {
	ChatID   string `json:"chat_id"`
	IsTyping bool   `json:"is_typing"`
}

type markReadData struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

type typingEventData struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type notificationEventData struct {
	ChatID   string `json:"chat_id"`
	SenderID string `json:"sender_id"`
	Preview  string `json:"preview"`
}

type errorEventData struct {
	Message string `json:"message"`
}

func (m *Manager) sendEvent(client *Client, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s event for %s: %v", eventType, client.UserID, err)
		return
	}

	raw, err := json.Marshal(WSMessage{
		Type:      eventType,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	select {
	case client.Send <- raw:
	default:
		// Slow consumer; drop the frame rather than block the fan-out.
		logger.Warn("WebSocket: dropping %s event for slow client %s", eventType, client.UserID)
	}
}

func (m *Manager) sendError(client *Client, message string) {
	m.sendEvent(client, EventError, errorEventData{Message: message})
}

// HandleClientMessage processes one incoming WebSocket frame.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("WebSocket: invalid frame from %s: %v", client.UserID, err)
		m.sendError(client, "Invalid message format")
		return
	}

	switch msg.Type {
	case ActionPing:
		m.sendEvent(client, EventPong, map[string]string{})

	case ActionSendMessage:
		var data sendMessageData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, "Invalid send_message payload")
			return
		}
		content := entity.MessageContent{
			Kind:    entity.MessageKind(data.Kind),
			Text:    data.Text,
			FileURL: data.FileURL,
		}
		if _, err := m.store.SendMessage(m.ctx, data.ChatID, client.UserID, content); err != nil {
			m.sendError(client, err.Error())
		}

	case ActionSubscribeMessages:
		var data chatActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, "Invalid subscribe_messages payload")
			return
		}
		m.subscribeMessages(client, data.ChatID)

	case ActionUnsubscribeMessages:
		var data chatActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, "Invalid unsubscribe_messages payload")
			return
		}
		client.dropStream("messages:" + data.ChatID)

	case ActionSubscribeTyping:
		var data chatActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, "Invalid subscribe_typing payload")
			return
		}
		m.subscribeTyping(client, data.ChatID)

	case ActionUnsubscribeTyping:
		var data chatActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, "Invalid unsubscribe_typing payload")
			return
		}
		client.dropStream("typing:" + data.ChatID)

	case ActionSetTyping:
		var data setTypingData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, "Invalid set_typing payload")
			return
		}
		if err := m.store.SetTypingStatus(m.ctx, data.ChatID, client.UserID, data.IsTyping); err != nil {
			m.sendError(client, err.Error())
		}

	case ActionMarkRead:
		var data markReadData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, "Invalid mark_read payload")
			return
		}
		if err := m.store.MarkMessageRead(m.ctx, data.ChatID, data.MessageID); err != nil {
			m.sendError(client, err.Error())
		}

	default:
		logger.Debug("WebSocket: unknown message type %q from %s", msg.Type, client.UserID)
		m.sendError(client, "Unknown message type")
	}
}

func (m *Manager) subscribeMessages(client *Client, chatID string) {
	chat, err := m.store.GetChatByID(m.ctx, chatID)
	if err != nil {
		m.sendError(client, err.Error())
		return
	}
	if !chat.HasParticipant(client.UserID) {
		m.sendError(client, "Not a chat participant")
		return
	}

	unsub := m.store.SubscribeToMessages(m.ctx, chatID, func(messages []*entity.Message) {
		m.sendEvent(client, EventMessages, messages)
	})
	client.addStream("messages:"+chatID, unsub)
}

// subscribeTyping watches the counterpart of a two-party chat; a user's own
// typing state is never echoed back.
func (m *Manager) subscribeTyping(client *Client, chatID string) {
	chat, err := m.store.GetChatByID(m.ctx, chatID)
	if err != nil {
		m.sendError(client, err.Error())
		return
	}
	if !chat.HasParticipant(client.UserID) {
		m.sendError(client, "Not a chat participant")
		return
	}

	watched := chat.Counterpart(client.UserID)
	unsub := m.store.SubscribeToTyping(m.ctx, chatID, watched, func(isTyping bool) {
		m.sendEvent(client, EventTyping, typingEventData{
			ChatID:   chatID,
			UserID:   watched,
			IsTyping: isTyping,
		})
	})
	client.addStream("typing:"+chatID, unsub)
}
