package core

import "time"

// Message is the domain model for a direct message.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	Text        string
	CreatedAt   time.Time
}
