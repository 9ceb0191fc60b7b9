package entity

import "time"

// TypingStatus is ephemeral per-user, per-chat composition state. It is
// overwritten in place on every update and never retained historically.
type TypingStatus struct {
	ChatID    string    `json:"chat_id" firestore:"chatId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	IsTyping  bool      `json:"is_typing" firestore:"isTyping"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}
