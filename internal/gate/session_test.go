// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package gate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/portcullisproject/portcullis/internal/models"
)

func newVerifier(t *testing.T, secret string) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(secret, "pc_session")
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	return v
}

func requestWithSession(t *testing.T, v *JWTVerifier, identity models.SessionIdentity, ttl time.Duration) *http.Request {
	t.Helper()
	token, err := v.Issue(identity, ttl)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: v.CookieName(), Value: token})
	return r
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := newVerifier(t, "test-secret")
	want := models.SessionIdentity{ID: "u42", Email: "op@example.com", Role: "editor", DisplayName: "Op"}

	got, err := v.Verify(requestWithSession(t, v, want, time.Hour))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if *got != want {
		t.Errorf("identity = %+v, want %+v", *got, want)
	}
}

func TestJWTVerifier_Rejections(t *testing.T) {
	v := newVerifier(t, "test-secret")

	t.Run("no cookie", func(t *testing.T) {
		_, err := v.Verify(httptest.NewRequest(http.MethodGet, "/", nil))
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("error = %v, want ErrNoSession", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: v.CookieName(), Value: "not.a.jwt"})
		if _, err := v.Verify(r); !errors.Is(err, ErrNoSession) {
			t.Errorf("error = %v, want ErrNoSession", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		r := requestWithSession(t, v, models.SessionIdentity{ID: "u1", Role: "user"}, -time.Minute)
		if _, err := v.Verify(r); !errors.Is(err, ErrNoSession) {
			t.Errorf("error = %v, want ErrNoSession", err)
		}
	})

	t.Run("foreign secret", func(t *testing.T) {
		other := newVerifier(t, "different-secret")
		r := requestWithSession(t, other, models.SessionIdentity{ID: "u1", Role: "user"}, time.Hour)
		if _, err := v.Verify(r); !errors.Is(err, ErrNoSession) {
			t.Errorf("error = %v, want ErrNoSession", err)
		}
	})
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewJWTVerifier("", "session"); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestAuthGate_NilIdentityIsNoSession(t *testing.T) {
	g := NewAuthGate(stubVerifier{})
	if _, err := g.RequireSession(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrNoSession) {
		t.Errorf("error = %v, want ErrNoSession", err)
	}
}
