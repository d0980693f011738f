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

const keysCollection = "api_keys"

// Keys is the cached API key directory.
type Keys struct {
	reader Reader
	cache  *cache.Cache[[]models.APIKey]
}

// NewKeys creates a key directory with the given cache TTL.
func NewKeys(reader Reader, ttl time.Duration) *Keys {
	return &Keys{
		reader: reader,
		cache:  cache.New[[]models.APIKey]("api_keys", ttl),
	}
}

// Keys returns all valid key records. Unlike roles and settings there is no
// safe default: when the store is unreachable and nothing is cached the
// error propagates and key checks fail closed.
func (d *Keys) Keys(ctx context.Context) ([]models.APIKey, error) {
	return d.cache.Get(ctx, allKey, d.fetch)
}

// Refresh drops the cached collection so the next read refetches.
func (d *Keys) Refresh() {
	d.cache.Invalidate(allKey)
}

func (d *Keys) fetch(ctx context.Context) ([]models.APIKey, error) {
	var records []models.APIKey
	if err := d.reader.List(ctx, keysCollection, &records); err != nil {
		return nil, err
	}

	keys := records[:0]
	for _, record := range records {
		if err := validation.ValidateStruct(&record); err != nil {
			logging.Warn().Err(err).Str("collection", keysCollection).Msg("skipping malformed record")
			continue
		}
		keys = append(keys, record)
	}
	return keys, nil
}
