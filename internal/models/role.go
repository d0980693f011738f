// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package models defines the records the gateway reads from the backing
// collection service: roles, site settings, API keys, and whitelist entries.
// The gateway only ever reads these records; operators create and edit them
// through the admin surface, which writes to the collection service directly.
package models

import "strings"

// RoleAdmin is the reserved role name with unrestricted access.
// A role with this name bypasses route checks regardless of AllowedRoutes.
const RoleAdmin = "admin"

// Role maps a role name to the route patterns its members may access.
//
// AllowedRoutes entries are path prefixes, optionally wildcard-suffixed
// ("/reports/*"); see the routematch package for the matching semantics.
type Role struct {
	// Name is the unique, case-insensitive role name.
	Name string `json:"name" validate:"required"`

	// AllowedRoutes lists the route patterns members of this role may access.
	AllowedRoutes []string `json:"allowedRoutes"`

	// IsAdmin grants unrestricted access regardless of AllowedRoutes.
	IsAdmin bool `json:"isAdmin"`
}

// Unrestricted reports whether this role bypasses route checks entirely.
func (r Role) Unrestricted() bool {
	return r.IsAdmin || strings.EqualFold(r.Name, RoleAdmin)
}
