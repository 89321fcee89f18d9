package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Tokens identify the actor only; what the actor may do is resolved
// server-side against the permission cache on every request, so a role
// change never has to wait for token expiry.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	TokenType TokenType `json:"token_type"`
}
