// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package models

import "strings"

// SessionIdentity is the identity extracted from a verified session token.
// The gateway does not issue or store these; it receives them from the
// session verifier and treats them as opaque input.
type SessionIdentity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName,omitempty"`
}

// IsAdmin reports whether the identity carries the reserved admin role.
func (s SessionIdentity) IsAdmin() bool {
	return strings.EqualFold(s.Role, RoleAdmin)
}
