// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package apikey validates presented API keys against the key directory.
package apikey

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/portcullisproject/portcullis/internal/models"
)

// Validation errors.
var (
	// ErrMissing indicates no API key was presented.
	ErrMissing = errors.New("apikey: no key presented")

	// ErrInvalidOrExpired indicates the key is unknown, not active, or past
	// its expiry.
	ErrInvalidOrExpired = errors.New("apikey: key invalid or expired")

	// ErrInsufficientPermission indicates the key lacks the required
	// permission scope.
	ErrInsufficientPermission = errors.New("apikey: insufficient permission")
)

// Source supplies the current key records.
// Implemented by directory.Keys.
type Source interface {
	Keys(ctx context.Context) ([]models.APIKey, error)
}

// Validator checks presented keys for status, expiry, and permissions.
type Validator struct {
	source Source
	now    func() time.Time
}

// NewValidator creates a validator backed by the given key source.
func NewValidator(source Source) *Validator {
	return &Validator{source: source, now: time.Now}
}

// Validate looks up the presented key by exact match and checks that it is
// active, unexpired, and (when requiredPermission is non-empty) carries the
// required permission. Key directory failures surface as errors so key
// checks fail closed.
func (v *Validator) Validate(ctx context.Context, presented, requiredPermission string) (*models.APIKey, error) {
	if presented == "" {
		return nil, ErrMissing
	}

	keys, err := v.source.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("apikey: key directory unavailable: %w", err)
	}

	for i := range keys {
		if keys[i].Key != presented {
			continue
		}
		if !keys[i].Usable(v.now()) {
			return nil, ErrInvalidOrExpired
		}
		if requiredPermission != "" && !keys[i].HasPermission(requiredPermission) {
			return nil, ErrInsufficientPermission
		}
		return &keys[i], nil
	}

	return nil, ErrInvalidOrExpired
}

// FromRequest extracts the presented API key: the X-Api-Key header, or an
// Authorization bearer token.
func FromRequest(r *http.Request) string {
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
