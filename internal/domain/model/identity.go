package model

// ServerVersion is reported to clients in the connected handshake event.
const ServerVersion = "1.0.0"

// Identity is the resolved, stable reference to a user account.
// It is immutable for the lifetime of the connection that resolved it.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
