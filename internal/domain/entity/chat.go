package entity

import "time"

// LastMessage is the denormalized summary of the most recent message in a
// chat, kept on the chat document so chat lists render without loading the
// message subcollection.
type LastMessage struct {
	Text      string      `json:"text" firestore:"text"`
	SenderID  string      `json:"sender_id" firestore:"senderId"`
	Kind      MessageKind `json:"kind" firestore:"kind"`
	Timestamp time.Time   `json:"timestamp" firestore:"timestamp"`
}

// Chat is a two-party conversation. Participants always holds exactly two
// distinct user ids, and at most one chat exists per unordered pair.
type Chat struct {
	ID           string      `json:"id" firestore:"id"`
	Participants []string    `json:"participants" firestore:"participants"`
	CreatedAt    time.Time   `json:"created_at" firestore:"createdAt"`
	LastMessage  LastMessage `json:"last_message" firestore:"lastMessage"`
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant of a two-party chat, or "" when
// userID is not a participant.
func (c *Chat) Counterpart(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
