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
	"github.com/portcullisproject/portcullis/internal/validation"
)

const whitelistCollection = "whitelist"

// Whitelist is the cached IP/domain allow-list.
type Whitelist struct {
	reader Reader
	cache  *cache.Cache[[]models.WhitelistEntry]
}

// NewWhitelist creates a whitelist directory with the given cache TTL.
func NewWhitelist(reader Reader, ttl time.Duration) *Whitelist {
	return &Whitelist{
		reader: reader,
		cache:  cache.New[[]models.WhitelistEntry]("whitelist", ttl),
	}
}

// Entries returns all valid whitelist entries. Fails closed like Keys: an
// unreachable store with no cached copy denies external callers.
func (d *Whitelist) Entries(ctx context.Context) ([]models.WhitelistEntry, error) {
	return d.cache.Get(ctx, allKey, d.fetch)
}

// Refresh drops the cached collection so the next read refetches.
func (d *Whitelist) Refresh() {
	d.cache.Invalidate(allKey)
}

func (d *Whitelist) fetch(ctx context.Context) ([]models.WhitelistEntry, error) {
	var records []models.WhitelistEntry
	if err := d.reader.List(ctx, whitelistCollection, &records); err != nil {
		return nil, err
	}

	entries := records[:0]
	for _, record := range records {
		if err := validation.ValidateStruct(&record); err != nil {
			logging.Warn().Err(err).Str("collection", whitelistCollection).Msg("skipping malformed record")
			continue
		}
		entries = append(entries, record)
	}
	return entries, nil
}
