// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package gate

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/portcullisproject/portcullis/internal/models"
)

// ErrNoSession indicates the request carries no valid session.
// Every session verification failure collapses into this error: an expired,
// malformed, or absent token all mean the same thing to the gateway.
var ErrNoSession = errors.New("gate: no session")

// SessionVerifier validates an externally-issued session token and extracts
// the identity it carries. The gateway does not parse tokens itself beyond
// what the configured verifier does.
type SessionVerifier interface {
	Verify(r *http.Request) (*models.SessionIdentity, error)
}

// AuthGate verifies session presence for protected routes.
type AuthGate struct {
	verifier SessionVerifier
}

// NewAuthGate creates a gate around the given verifier.
func NewAuthGate(verifier SessionVerifier) *AuthGate {
	return &AuthGate{verifier: verifier}
}

// RequireSession returns the request's verified identity or ErrNoSession.
func (g *AuthGate) RequireSession(r *http.Request) (*models.SessionIdentity, error) {
	identity, err := g.verifier.Verify(r)
	if err != nil || identity == nil {
		return nil, ErrNoSession
	}
	return identity, nil
}

// sessionClaims are the JWT claims the bundled verifier understands.
type sessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier is the bundled SessionVerifier: an HS256-signed session cookie
// minted by the login service.
type JWTVerifier struct {
	secret     []byte
	cookieName string
}

// NewJWTVerifier creates a verifier for session cookies signed with secret.
func NewJWTVerifier(secret, cookieName string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("gate: session secret is required")
	}
	if cookieName == "" {
		cookieName = "session"
	}
	return &JWTVerifier{secret: []byte(secret), cookieName: cookieName}, nil
}

// Verify parses and validates the session cookie.
func (v *JWTVerifier) Verify(r *http.Request) (*models.SessionIdentity, error) {
	cookie, err := r.Cookie(v.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("gate: unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoSession
	}

	return &models.SessionIdentity{
		ID:          claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
		DisplayName: claims.Name,
	}, nil
}

// Issue mints a session token for the identity. Used by tests and by
// deployments without a separate login service.
func (v *JWTVerifier) Issue(identity models.SessionIdentity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		Email: identity.Email,
		Role:  identity.Role,
		Name:  identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("gate: signing session token: %w", err)
	}
	return signed, nil
}

// CookieName returns the session cookie name the verifier reads.
func (v *JWTVerifier) CookieName() string {
	return v.cookieName
}
