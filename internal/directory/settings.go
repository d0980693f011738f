// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package directory

import (
	"context"
	"time"

	"github.com/portcullisproject/portcullis/internal/cache"
	"github.com/portcullisproject/portcullis/internal/logging"
	"github.com/portcullisproject/portcullis/internal/models"
)

const settingsCollection = "site_settings"

// Settings is the cached site settings singleton.
type Settings struct {
	reader Reader
	cache  *cache.Cache[models.SiteSettings]
}

// NewSettings creates a settings directory with the given cache TTL.
func NewSettings(reader Reader, ttl time.Duration) *Settings {
	return &Settings{
		reader: reader,
		cache:  cache.New[models.SiteSettings]("settings", ttl),
	}
}

// Get returns the current site settings. Never fails: when the store is
// unreachable and nothing is cached, compile-time defaults are returned.
func (d *Settings) Get(ctx context.Context) models.SiteSettings {
	settings, err := d.cache.Get(ctx, allKey, d.fetch)
	if err != nil {
		logging.Warn().Err(err).Msg("settings unavailable, using defaults")
		return models.DefaultSiteSettings()
	}
	return settings
}

// Refresh drops the cached record so the next read refetches.
func (d *Settings) Refresh() {
	d.cache.Invalidate(allKey)
}

func (d *Settings) fetch(ctx context.Context) (models.SiteSettings, error) {
	var records []models.SiteSettings
	if err := d.reader.List(ctx, settingsCollection, &records); err != nil {
		return models.SiteSettings{}, err
	}
	// The settings record is a singleton; an empty collection means the
	// operator never saved one, which is a valid state, not an error.
	if len(records) == 0 {
		return models.DefaultSiteSettings(), nil
	}
	return records[0], nil
}
