package core

import "time"

// User is a registered account of the auth API
type User struct {
	ID           string    // Unique identifier for the user
	Username     string    // Login name, unique
	PasswordHash []byte    // bcrypt hash of the password
	CreatedAt    time.Time // When the account was registered
}

// Grant is the server-side view of an issued access/refresh token pair
type Grant struct {
	ID            string    // Unique identifier of the access token
	Subject       string    // Username the tokens were issued to
	IssuedAt      time.Time // When the tokens were issued
	AccessExpiry  time.Time // When the access capability expires
	RefreshExpiry time.Time // When the refresh capability expires
	RefreshID     string    // Unique identifier for the refresh token
}

// AuthEventType names a lifecycle step of a grant
type AuthEventType string

const (
	EventRegistered AuthEventType = "registered"
	EventLogin      AuthEventType = "login"
	EventRefresh    AuthEventType = "refresh"
	EventLogout     AuthEventType = "logout"
)

// AuthEvent is published after a successful auth operation
type AuthEvent struct {
	Type    AuthEventType `json:"type"`
	Subject string        `json:"subject"`
	TokenID string        `json:"token_id,omitempty"`
	At      time.Time     `json:"at"`
}
