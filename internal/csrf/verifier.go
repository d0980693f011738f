// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package csrf verifies double-submit CSRF token pairs for state-changing
// public requests.
//
// The browser submits a token in a request header; the same token travels in
// a cookie as "<token>|<signatureHash>". Verification compares the two token
// halves in constant time. When the verifier is constructed with a secret it
// additionally recomputes the HMAC-SHA256 of the token and compares it to the
// cookie's signature half; without a secret it only requires the signature
// half to be present (legacy behavior for cookies minted by older issuers).
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

// Verification errors.
var (
	// ErrHeaderMissing indicates no CSRF token header was provided.
	ErrHeaderMissing = errors.New("csrf: token header missing")

	// ErrCookieMissing indicates no CSRF cookie was provided.
	ErrCookieMissing = errors.New("csrf: cookie missing")

	// ErrCookieMalformed indicates the cookie does not split into a
	// token and signature pair.
	ErrCookieMalformed = errors.New("csrf: cookie malformed")

	// ErrTokenMismatch indicates the header and cookie tokens differ.
	ErrTokenMismatch = errors.New("csrf: token mismatch")

	// ErrSignatureInvalid indicates the cookie's signature half does not
	// match the recomputed HMAC.
	ErrSignatureInvalid = errors.New("csrf: signature invalid")
)

// HeaderNames are the request headers checked for the CSRF token, in order.
var HeaderNames = []string{"X-CSRF-Token", "CSRF-Token"}

// Verifier validates double-submit token pairs.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier. With a non-empty secret the cookie's
// signature half is recomputed and checked; with an empty secret it is only
// required to be present.
func NewVerifier(secret string) *Verifier {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Verifier{secret: key}
}

// Verify checks a header token against a cookie value of the form
// "<token>|<signatureHash>".
func (v *Verifier) Verify(headerToken, cookieValue string) error {
	if headerToken == "" {
		return ErrHeaderMissing
	}
	if cookieValue == "" {
		return ErrCookieMissing
	}

	token, signature, found := strings.Cut(cookieValue, "|")
	if !found || token == "" || signature == "" {
		return ErrCookieMalformed
	}

	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(token)) != 1 {
		return ErrTokenMismatch
	}

	if len(v.secret) > 0 {
		want := v.sign(token)
		if subtle.ConstantTimeCompare([]byte(want), []byte(signature)) != 1 {
			return ErrSignatureInvalid
		}
	}

	return nil
}

// CookieValue builds the cookie-encoded form of a token. Used by the session
// issuer and by tests; requires a secret.
func (v *Verifier) CookieValue(token string) string {
	return token + "|" + v.sign(token)
}

func (v *Verifier) sign(token string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// TokenFromRequest extracts the CSRF header token from the request, checking
// each accepted header name in order.
func TokenFromRequest(r *http.Request) string {
	for _, name := range HeaderNames {
		if token := r.Header.Get(name); token != "" {
			return token
		}
	}
	return ""
}

// CookieFromRequest returns the value of the first cookie whose name contains
// nameSubstring. The issuing system scopes cookie names per deployment, so
// the gateway matches by substring rather than exact name.
func CookieFromRequest(r *http.Request, nameSubstring string) string {
	if nameSubstring == "" {
		return ""
	}
	for _, c := range r.Cookies() {
		if strings.Contains(c.Name, nameSubstring) {
			return c.Value
		}
	}
	return ""
}
