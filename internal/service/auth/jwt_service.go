package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token carrying the user's
	// identity plus informational display name and email claims.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, identity, displayName, email string) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns the claims containing user information if the token is valid,
	// or an error if validation fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with application-specific fields.
type Claims struct {
	// Identity is the opaque stable key identifying the user.
	Identity string `json:"identity,omitempty"`

	// DisplayName is informational and may be empty.
	DisplayName string `json:"name,omitempty"`

	// Email is informational and may be empty.
	Email string `json:"email,omitempty"`

	// TokenType indicates the purpose of the token ("access").
	// Used to prevent token misuse across different contexts.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
