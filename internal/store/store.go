package store

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted direct message.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	Text        string
	CreatedAt   time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password and assigns its ID.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers lists all registered users ordered by username.
	ListUsers(ctx context.Context) ([]*User, error)
}

// MessageStore handles message persistence. Writes are a serialized append;
// messages are immutable once stored.
type MessageStore interface {
	// SaveMessage persists a message.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListConversation retrieves every message exchanged between two users,
	// in either direction, ascending by creation time.
	ListConversation(ctx context.Context, userA, userB string) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
