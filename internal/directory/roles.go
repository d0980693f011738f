// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package directory

import (
	"context"
	"strings"
	"time"

	"github.com/portcullisproject/portcullis/internal/cache"
	"github.com/portcullisproject/portcullis/internal/logging"
	"github.com/portcullisproject/portcullis/internal/models"
	"github.com/portcullisproject/portcullis/internal/validation"
)

// Reader reads a full collection from the backing store.
// Implemented by store.Client.
type Reader interface {
	List(ctx context.Context, collection string, out interface{}) error
}

const (
	rolesCollection = "roles"

	// Directories cache the whole collection under one key; the cache
	// primitive is keyed so the same type can back per-key caches elsewhere.
	allKey = "all"
)

// Roles is the cached role directory.
type Roles struct {
	reader Reader
	cache  *cache.Cache[map[string]models.Role]
}

// NewRoles creates a role directory with the given cache TTL.
func NewRoles(reader Reader, ttl time.Duration) *Roles {
	return &Roles{
		reader: reader,
		cache:  cache.New[map[string]models.Role]("roles", ttl),
	}
}

// Role returns the named role, case-insensitively. Unknown roles come back
// with no allowed routes. If the store is unreachable and nothing is cached,
// a hard-coded minimal mapping is used so the gateway keeps functioning on
// first-ever access with the backing store down.
func (d *Roles) Role(ctx context.Context, name string) models.Role {
	all, err := d.cache.Get(ctx, allKey, d.fetch)
	if err != nil {
		logging.Warn().Err(err).Msg("role directory unavailable, using built-in defaults")
		all = defaultRoles()
	}
	if role, ok := all[strings.ToLower(name)]; ok {
		return role
	}
	return models.Role{Name: name}
}

// AllowedRoutes returns the route patterns the named role may access.
func (d *Roles) AllowedRoutes(ctx context.Context, name string) []string {
	return d.Role(ctx, name).AllowedRoutes
}

// Refresh drops the cached collection so the next read refetches.
func (d *Roles) Refresh() {
	d.cache.Invalidate(allKey)
}

func (d *Roles) fetch(ctx context.Context) (map[string]models.Role, error) {
	var records []models.Role
	if err := d.reader.List(ctx, rolesCollection, &records); err != nil {
		return nil, err
	}

	roles := make(map[string]models.Role, len(records))
	for _, record := range records {
		if err := validation.ValidateStruct(&record); err != nil {
			logging.Warn().Err(err).Str("collection", rolesCollection).Msg("skipping malformed record")
			continue
		}
		roles[strings.ToLower(record.Name)] = record
	}
	return roles, nil
}

// defaultRoles is the minimal mapping used when the role collection has
// never been readable: admin unrestricted, user limited to the root route.
func defaultRoles() map[string]models.Role {
	return map[string]models.Role{
		"admin": {Name: models.RoleAdmin, IsAdmin: true},
		"user":  {Name: "user", AllowedRoutes: []string{"/"}},
	}
}
