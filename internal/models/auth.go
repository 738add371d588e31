package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload issued by the identity provider.
// UserID falls back to the registered subject when the custom claim is absent.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the caller identity carried by the token.
func (c *JWTClaims) Principal() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
