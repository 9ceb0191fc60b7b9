package entity

import "time"

type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
)

// MessageContent is the payload of an outgoing message before the store
// assigns identity and timestamp. Exactly one variant field is meaningful
// for a given kind: Text for text messages, FileURL for image messages.
type MessageContent struct {
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text,omitempty"`
	FileURL string      `json:"file_url,omitempty"`
}

func TextContent(text string) MessageContent {
	return MessageContent{Kind: MessageKindText, Text: text}
}

func ImageContent(fileURL string) MessageContent {
	return MessageContent{Kind: MessageKindImage, FileURL: fileURL}
}

type Message struct {
	ID        string      `json:"id" firestore:"id"`
	ChatID    string      `json:"chat_id" firestore:"chatId"`
	SenderID  string      `json:"sender_id" firestore:"senderId"`
	Kind      MessageKind `json:"kind" firestore:"kind"`
	Text      string      `json:"text,omitempty" firestore:"text,omitempty"`
	FileURL   string      `json:"file_url,omitempty" firestore:"fileURL,omitempty"`
	Timestamp time.Time   `json:"timestamp" firestore:"timestamp"`
	Read      bool        `json:"read" firestore:"read"`
}

// Summary projects a message into the denormalized last-message form kept on
// its chat.
func (m *Message) Summary() LastMessage {
	return LastMessage{
		Text:      m.Text,
		SenderID:  m.SenderID,
		Kind:      m.Kind,
		Timestamp: m.Timestamp,
	}
}
