// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package models

import "time"

// KeyStatus is the lifecycle state of an API key.
type KeyStatus string

const (
	KeyStatusActive   KeyStatus = "active"
	KeyStatusRevoked  KeyStatus = "revoked"
	KeyStatusInactive KeyStatus = "inactive"
)

// APIKey is a distributed key granting external callers scoped access to
// public-mutating endpoints.
type APIKey struct {
	// Key is the opaque secret presented by the caller.
	// Never log the full value; use Prefix() for audit output.
	Key string `json:"key" validate:"required"`

	// Status must be KeyStatusActive for the key to authorize anything.
	Status KeyStatus `json:"status" validate:"required,oneof=active revoked inactive"`

	// Permissions is the set of permission scopes granted to this key.
	Permissions []string `json:"permissions"`

	// ExpiresAt, when set, is the instant the key stops authorizing requests.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Usable reports whether the key authorizes requests at the given instant:
// status is active and the key has not expired.
func (k APIKey) Usable(now time.Time) bool {
	if k.Status != KeyStatusActive {
		return false
	}
	if k.ExpiresAt != nil && !k.ExpiresAt.After(now) {
		return false
	}
	return true
}

// HasPermission reports whether the key carries the given permission scope.
func (k APIKey) HasPermission(permission string) bool {
	for _, p := range k.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Prefix returns the first 8 characters of the key for audit logging.
// The full key value must never be written to logs.
func (k APIKey) Prefix() string {
	return KeyPrefix(k.Key)
}

// KeyPrefix truncates a presented key to a loggable prefix.
func KeyPrefix(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}
