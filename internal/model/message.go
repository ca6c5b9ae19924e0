package model

import "time"

// Message is a direct message between two users. Messages are only ever
// appended; a thread is derived by filtering on the sender/receiver pair.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Involves reports whether the message was exchanged between a and b, in
// either direction.
func (m Message) Involves(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) ||
		(m.SenderID == b && m.ReceiverID == a)
}

// Counterpart returns the other party of a message seen from userID.
func (m Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Conversation is one row of the chat list.
type Conversation struct {
	User        User    `json:"user"`
	LastMessage Message `json:"lastMessage"`
}

// ConversationList splits known users into those with history (Active,
// newest first) and those without (Suggested).
type ConversationList struct {
	Active    []Conversation `json:"active"`
	Suggested []User         `json:"suggested"`
}
