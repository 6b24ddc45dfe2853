package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/ports"
)

const (
	AudienceAccess  = "authflow:access"
	AudienceRefresh = "authflow:refresh"

	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// GrantToAccessToken signs an access token for the grant
func (j *JWTTokenizer) GrantToAccessToken(grant *core.Grant) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   grant.Subject,
			ID:        grant.ID,
			ExpiresAt: jwt.NewNumericDate(grant.AccessExpiry),
			IssuedAt:  jwt.NewNumericDate(grant.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		RefreshID: grant.RefreshID,
		Type:      TypeAccess,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// GrantToRefreshToken signs a refresh token for the grant
func (j *JWTTokenizer) GrantToRefreshToken(grant *core.Grant) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   grant.Subject,
			ID:        grant.RefreshID, // the JWT ID of a refresh token is the refresh ID
			ExpiresAt: jwt.NewNumericDate(grant.RefreshExpiry),
			IssuedAt:  jwt.NewNumericDate(grant.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceRefresh},
		},
		Type: TypeRefresh,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return signedToken, nil
}

// AccessTokenToGrant parses an access token and returns the associated grant.
// An expired but otherwise valid token yields the grant and core.ErrTokenExpired.
func (j *JWTTokenizer) AccessTokenToGrant(tokenStr string) (*core.Grant, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, j.keyFunc, jwt.WithAudience(AudienceAccess))
	if err = classify(err); err != nil && !errors.Is(err, core.ErrTokenExpired) {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, core.ErrInvalidToken
	}

	grant := &core.Grant{
		ID:        claims.ID,
		Subject:   claims.Subject,
		RefreshID: claims.RefreshID,
	}
	if claims.IssuedAt != nil {
		grant.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		grant.AccessExpiry = claims.ExpiresAt.Time
	}

	return grant, err
}

// RefreshTokenToGrant parses a refresh token and returns the associated grant.
// Only the refresh side of the grant is filled in.
func (j *JWTTokenizer) RefreshTokenToGrant(tokenStr string) (*core.Grant, error) {
	claims := &RefreshClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, j.keyFunc, jwt.WithAudience(AudienceRefresh))
	if err = classify(err); err != nil && !errors.Is(err, core.ErrTokenExpired) {
		return nil, err
	}
	if claims.Type != TypeRefresh {
		return nil, core.ErrInvalidToken
	}

	grant := &core.Grant{
		Subject:   claims.Subject,
		RefreshID: claims.ID,
	}
	if claims.IssuedAt != nil {
		grant.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		grant.RefreshExpiry = claims.ExpiresAt.Time
	}

	return grant, err
}

func (j *JWTTokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return &j.signKey.PublicKey, nil
}

// classify maps jwt parse errors onto core errors
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}
}
