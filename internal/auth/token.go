package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionTokenExpiry is the fixed lifetime of a session token. Expiry is
	// the only invalidation mechanism short of logout; there is no server-side
	// revocation list.
	SessionTokenExpiry = 24 * time.Hour

	// ResetTokenExpiry is the fixed lifetime of a password-reset token.
	ResetTokenExpiry = time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Tokens signs and verifies session tokens with a single startup-loaded secret.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

// IssueSessionToken mints a signed session token for userID, valid for
// SessionTokenExpiry from now.
func (t *Tokens) IssueSessionToken(userID string) (string, error) {
	return t.signSessionToken(userID, time.Now())
}

func (t *Tokens) signSessionToken(userID string, issuedAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(SessionTokenExpiry)),
		Issuer:    "cinescope",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// VerifySessionToken checks signature and expiry and returns the subject user
// ID. Malformed, tampered and expired tokens all fail with ErrInvalidToken.
func (t *Tokens) VerifySessionToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// GenerateResetToken returns 32 bytes from a cryptographically secure source,
// hex-encoded. The token is opaque; validity is decided entirely by the store
// lookup, never by decoding.
func GenerateResetToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}
