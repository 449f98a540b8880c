package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the buyer profile carried inside the provider-issued token.
// Subject is the external-identity claim the backend keys orders on.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type idClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// IdentityFromToken extracts the identity claims from a bearer token. The
// token is provider-issued and verified by the API server on every call, so
// the client only decodes it; no local signature check is possible without
// the provider's keys.
func IdentityFromToken(token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("empty token")
	}

	var claims idClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Identity{}, fmt.Errorf("failed to parse token claims: %w", err)
	}

	name := claims.Name
	if name == "" {
		name = claims.Nickname
	}

	return Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    name,
	}, nil
}
