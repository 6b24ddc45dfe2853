package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	RefreshID string `json:"rid"` // ID of the refresh token
	Type      string `json:"typ"`
}

// RefreshClaims are the standard claims plus the token type
type RefreshClaims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}
