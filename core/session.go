package core

import "sync"

// SessionState is the observable state of a client Session
type SessionState int

const (
	// Unauthenticated means both credentials are empty
	Unauthenticated SessionState = iota
	// Authenticated means both credentials are set
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Credentials is a point-in-time copy of the tokens held by a Session
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Session holds the client's access and refresh credentials in memory.
// An empty string means the credential is absent. Every field assignment is
// serialized, whole operations are not.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewSession creates an unauthenticated session
func NewSession() *Session {
	return &Session{}
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Credentials returns a consistent snapshot of both tokens
func (s *Session) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Credentials{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
	}
}

// SetTokens replaces both credentials, as after a login
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

// SetAccessToken replaces only the access credential, as after a refresh
func (s *Session) SetAccessToken(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
}

// State reports Authenticated once a login has stored credentials
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken != "" && s.refreshToken != "" {
		return Authenticated
	}
	return Unauthenticated
}
