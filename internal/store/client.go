// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package store reads record collections from the backing collection service.
//
// The collection service is a generic key-collection store maintained by the
// admin surface; the gateway reads collections in full (no filtering is
// pushed down) and never writes. Fetches go through a circuit breaker so a
// down store trips fast and the cache layer falls back to stale or default
// data instead of paying a connect timeout per request.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/portcullisproject/portcullis/internal/metrics"
)

// ErrUnavailable indicates the collection service could not be reached or
// the circuit breaker is open.
var ErrUnavailable = errors.New("store: collection service unavailable")

// Config holds the collection service connection settings.
type Config struct {
	// BaseURL is the collection service root, e.g. "http://records:8090".
	BaseURL string

	// Timeout bounds each fetch. Default: 10s.
	Timeout time.Duration

	// BreakerFailureThreshold is the number of consecutive fetch failures
	// that opens the circuit. Default: 5.
	BreakerFailureThreshold uint32

	// BreakerOpenDuration is how long the circuit stays open before a probe
	// request is allowed through. Default: 30s.
	BreakerOpenDuration time.Duration
}

// Client reads collections over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New creates a collection service client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerOpenDuration <= 0 {
		cfg.BreakerOpenDuration = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "collection-store",
		Timeout: cfg.BreakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	})

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

// List reads a full collection and decodes the response body into out.
// out is typically a pointer to a slice of the collection's record type.
func (c *Client) List(ctx context.Context, collection string, out interface{}) error {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, collection)
	})
	metrics.RecordStoreFetch(collection, time.Since(start), err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open for %q", ErrUnavailable, collection)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("store: decoding collection %q: %w", collection, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, collection string) ([]byte, error) {
	url := c.baseURL + "/collections/" + collection + "/records"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("store: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: collection %q returned status %d", ErrUnavailable, collection, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	return body, nil
}
