package core

// Identity is the verified user attached to a session. It is issued by the
// auth subsystem and treated as an immutable value here.
type Identity struct {
	UserID   string
	Username string
}
