package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeUnauthenticated     = "unauthenticated"
	ErrCodeInvalidRecipient    = "invalid_recipient"
	ErrCodeInvalidMessage      = "invalid_message"
	ErrCodeStoreUnavailable    = "store_unavailable"
	ErrCodeDuplicateConnection = "duplicate_connection"
)

var (
	// ErrUnauthenticated means the sending connection has no registered
	// session. Fatal to the connection.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidRecipient means the recipient reference is not a valid user ID.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrInvalidMessage means the text is empty or too long after trimming.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrStoreUnavailable means persistence failed; nothing was delivered.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateConnection means a connection ID was registered twice.
	ErrDuplicateConnection = errors.New("duplicate connection")
)
