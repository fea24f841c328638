package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identify an anonymous shopper session; the token is the only credential
// a browser carries.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
